package browser

import (
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Request patterns the site serves for analytics, tracking and static
// assets. Blocking them keeps the personas fast and quiet.
var blockedURLPatterns = []string{
	"**/wapi/zpCommon/actionLog/common.json",
	"**/library/js/analytics/**",
	"**/H5/js/plugins/web-report*",
	"**/wapi/zpuser/wap/getSecurityGuide*",
	"**/wapi/zpCommon/data/getCityShowPosition",
	"**/wapi/zpgeek/history/joblist.json*",
	"**/wapi/zpgeek/collection/popup/window",
	"https://static.zhipin.com/**",
	"https://apm-fe.zhipin.com/**",
	"https://apm-fe-qa.weizhipin.com/**",
	"https://logapi.zhipin.com/**",
	"https://datastar-dev.weizhipin.com/**",
	"https://z.zhipin.com/**",
	"https://img.bosszhipin.com/**",
	"https://hm.baidu.com/**",
	"https://t.kanzhun.com/**",
	"https://res.zhipin.com/**",
	"https://c-res.zhipin.com/**",
	"https://t.zhipin.com/**",
}

func blockAnalytics(ctx playwright.BrowserContext) error {
	for _, pattern := range blockedURLPatterns {
		if err := ctx.Route(pattern, func(route playwright.Route) {
			_ = route.Abort("blockedbyclient")
		}); err != nil {
			return err
		}
	}
	return nil
}

// RandomDelay waits for a random duration between min and max milliseconds.
func RandomDelay(min, max int) {
	duration := rand.Intn(max-min+1) + min
	time.Sleep(time.Duration(duration) * time.Millisecond)
}

// SmoothScroll scrolls the page down in steps, the way a reader would.
func SmoothScroll(page playwright.Page) error {
	for i := 0; i < 5; i++ {
		if _, err := page.Evaluate("window.scrollBy(0, 500)"); err != nil {
			return err
		}
		RandomDelay(300, 800)
	}
	return nil
}
