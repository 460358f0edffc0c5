package offices

import "testing"

const eyeBadgeHTML = `<html><body><ul>
<li class="post-info-advertising-details"><svg viewBox="0 96 960 960"></svg><span>رقم الإعلان: 8412</span></li>
<li class="post-info-advertising-details"><svg viewBox="0 -960 960 960"></svg><span>354</span></li>
</ul></body></html>`

const fallbackBadgeHTML = `<html><body><ul>
<li class="post-info-advertising-details"><span>منذ 3 ساعات</span></li>
<li class="post-info-advertising-details"><span>127</span></li>
</ul></body></html>`

const noBadgeHTML = `<html><body><div>لا توجد تفاصيل</div></body></html>`

func TestParseViewsEyeIcon(t *testing.T) {
	views, err := ParseViews(eyeBadgeHTML)
	if err != nil {
		t.Fatalf("ParseViews returned error: %v", err)
	}
	if views != 354 {
		t.Errorf("views = %d; want 354", views)
	}
}

func TestParseViewsSeparators(t *testing.T) {
	html := `<li class="post-info-advertising-details"><svg viewBox="0 -960 960 960"></svg><span>1,254 مشاهدة</span></li>`
	views, err := ParseViews(html)
	if err != nil {
		t.Fatalf("ParseViews returned error: %v", err)
	}
	if views != 1254 {
		t.Errorf("views = %d; want 1254", views)
	}
}

func TestParseViewsNumericFallback(t *testing.T) {
	views, err := ParseViews(fallbackBadgeHTML)
	if err != nil {
		t.Fatalf("ParseViews returned error: %v", err)
	}
	if views != 127 {
		t.Errorf("views = %d; want 127", views)
	}
}

func TestParseViewsMissing(t *testing.T) {
	if _, err := ParseViews(noBadgeHTML); err == nil {
		t.Fatal("expected an error when no badge is present")
	}
}
