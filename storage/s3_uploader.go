package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"boshamlan-scraper/models"
	"boshamlan-scraper/utils"
)

const workbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// S3Uploader pushes workbooks and listing images to the data-lake bucket
// under date-partitioned keys.
type S3Uploader struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	basePath string
	region   string
	runID    string
	logger   *utils.Logger
	pool     *utils.WorkerPool
	httpc    *http.Client
}

// NewS3Uploader builds an uploader for bucket. Static credentials are used
// when both key parts are configured; otherwise the default AWS chain
// applies.
func NewS3Uploader(ctx context.Context, bucket, basePath, region, accessKey, secretKey string, logger *utils.Logger) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Uploader{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		basePath: strings.Trim(basePath, "/"),
		region:   region,
		runID:    uuid.New().String(),
		logger:   logger,
		pool:     utils.NewWorkerPool(3, 200),
		httpc:    &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// RunID identifies this uploader's run in object metadata.
func (u *S3Uploader) RunID() string { return u.runID }

// CheckBucket verifies the bucket is reachable with the current credentials.
func (u *S3Uploader) CheckBucket(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(u.bucket)})
	if err != nil {
		return fmt.Errorf("s3: bucket %q not accessible: %w", u.bucket, err)
	}
	u.logger.Info("[s3] Bucket %q reachable in %s", u.bucket, u.region)
	return nil
}

// DatePartition renders the year=/month=/day= partition for t.
func DatePartition(t time.Time) string {
	return fmt.Sprintf("year=%d/month=%02d/day=%02d", t.Year(), int(t.Month()), t.Day())
}

func (u *S3Uploader) workbookKey(day time.Time, name string) string {
	return fmt.Sprintf("%s/%s/excel files/%s.xlsx", u.basePath, DatePartition(day), name)
}

func (u *S3Uploader) imageKey(day time.Time, category, filename string) string {
	if category == "" {
		return fmt.Sprintf("%s/%s/images/%s", u.basePath, DatePartition(day), filename)
	}
	return fmt.Sprintf("%s/%s/images/%s/%s", u.basePath, DatePartition(day), category, filename)
}

// UploadWorkbook uploads the file at filePath as name under day's partition
// and returns the object's S3 URI.
func (u *S3Uploader) UploadWorkbook(ctx context.Context, filePath, name string, day time.Time) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("s3: open %q: %w", filePath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("s3: stat %q: %w", filePath, err)
	}

	key := u.workbookKey(day, name)
	u.logger.Info("[s3] Uploading %s (%.2f MB) to s3://%s/%s",
		filePath, float64(info.Size())/(1024*1024), u.bucket, key)

	_, err = u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(workbookContentType),
		Metadata: map[string]string{
			"upload-date": time.Now().Format(time.RFC3339),
			"category":    name,
			"source":      "boshamlan-scraper",
			"run-id":      u.runID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("s3: upload %q: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}

// UploadWorkbooks uploads each named workbook, returning the URI per name.
// Individual failures are logged and skipped.
func (u *S3Uploader) UploadWorkbooks(ctx context.Context, files map[string]string, day time.Time) map[string]string {
	uploaded := make(map[string]string, len(files))
	for name, path := range files {
		uri, err := u.UploadWorkbook(ctx, path, name, day)
		if err != nil {
			u.logger.Error("[s3] %v", err)
			continue
		}
		uploaded[name] = uri
	}
	u.logger.Info("[s3] Uploaded %d/%d workbooks", len(uploaded), len(files))
	return uploaded
}

// UploadImages downloads each record's image and stores it under the
// category's images folder, fanned out over the worker pool. Returns source
// URL to S3 URI for the successes.
func (u *S3Uploader) UploadImages(ctx context.Context, records []*models.Record, category string, day time.Time) map[string]string {
	uploaded := make(map[string]string)
	var mu sync.Mutex

	for i, rec := range records {
		if rec.ImageURL == nil || *rec.ImageURL == "" {
			continue
		}
		src := *rec.ImageURL
		filename := imageFilename(rec, i)

		u.pool.Submit(func() {
			uri, err := u.uploadImage(ctx, src, category, filename, day)
			if err != nil {
				u.logger.Warn("[s3] Image %s: %v", src, err)
				return
			}
			mu.Lock()
			uploaded[src] = uri
			mu.Unlock()
		})
	}
	u.pool.Wait()

	u.logger.Info("[s3] Uploaded %d images for %s", len(uploaded), category)
	return uploaded
}

func (u *S3Uploader) uploadImage(ctx context.Context, src, category, filename string, day time.Time) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := u.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	key := u.imageKey(day, category, filename)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"upload-date": time.Now().Format(time.RFC3339),
			"source":      "boshamlan-scraper",
			"run-id":      u.runID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}

// ListUploaded lists the keys stored under day's partition.
func (u *S3Uploader) ListUploaded(ctx context.Context, day time.Time) ([]string, error) {
	prefix := fmt.Sprintf("%s/%s/", u.basePath, DatePartition(day))
	resp, err := u.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(u.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("s3: list %q: %w", prefix, err)
	}

	keys := make([]string, 0, len(resp.Contents))
	for _, obj := range resp.Contents {
		if obj.Key != nil {
			keys = append(keys, *obj.Key)
		}
	}
	return keys, nil
}

// imageFilename derives a stable object name from the record title, falling
// back to a random name when the title has nothing usable.
func imageFilename(rec *models.Record, index int) string {
	title := ""
	if rec.Title != nil {
		title = *rec.Title
	}
	runes := []rune(title)
	if len(runes) > 30 {
		title = string(runes[:30])
	}

	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_")
	if safe == "" {
		return fmt.Sprintf("property_%d_%s.jpg", index, uuid.New().String()[:8])
	}
	return fmt.Sprintf("%s_%d.jpg", safe, index)
}
