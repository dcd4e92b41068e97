// Package blocklist pulls operator-side site state into the local store:
// masked-company groups and historical interaction/deliver relations.
// Both feed the acceptability engine.
package blocklist

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"go-zhipin-automation/internal/browser"
	"go-zhipin-automation/internal/logger"
	"go-zhipin-automation/internal/models"
	"go-zhipin-automation/internal/store"
	"go-zhipin-automation/internal/zhipin"
)

const (
	GroupInteraction = "interaction"
	GroupDeliver     = "deliver"
)

// Syncer pages through the site's account endpoints with the session
// cookies and upserts what it finds.
type Syncer struct {
	client *resty.Client
	masks  *store.MaskCompanyRepository
	jobs   *store.JobRepository

	maskURL        string
	interactionURL string
	deliverURL     string
	pageDelay      time.Duration
}

func NewSyncer(cookiesPath string, masks *store.MaskCompanyRepository, jobs *store.JobRepository) (*Syncer, error) {
	cookies, err := browser.LoadHTTPCookies(cookiesPath)
	if err != nil {
		return nil, fmt.Errorf("loading session cookies: %w", err)
	}
	client := resty.New().
		SetTimeout(zhipin.Timeout).
		SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36").
		SetHeader("Referer", zhipin.BaseURL).
		SetCookies(cookies)
	return &Syncer{
		client:         client,
		masks:          masks,
		jobs:           jobs,
		maskURL:        zhipin.MaskCompanyAPIURL,
		interactionURL: zhipin.InteractionAPIURL,
		deliverURL:     zhipin.DeliverListAPIURL,
		pageDelay:      zhipin.LargeSleep,
	}, nil
}

// SyncMaskCompanies walks one masked-company group with the encryptId
// cursor the endpoint expects and upserts every entry.
func (s *Syncer) SyncMaskCompanies(ctx context.Context, groupID int) error {
	if groupID < 1 || groupID > 3 {
		return fmt.Errorf("group id must be 1, 2 or 3, got %d", groupID)
	}
	encryptID := ""
	saved := 0
	for {
		url := fmt.Sprintf("%s?encryptId=%s&groupId=%d&_=%d",
			s.maskURL, encryptID, groupID, time.Now().UnixMilli())
		resp, err := s.client.R().SetContext(ctx).Get(url)
		if err != nil {
			return fmt.Errorf("mask company page fetch failed: %w", err)
		}
		body := resp.Body()
		if gjson.GetBytes(body, "code").Int() != 0 {
			break
		}
		entries := gjson.GetBytes(body, "zpData.dataList").Array()
		if len(entries) == 0 {
			break
		}
		for _, entry := range entries {
			row := &models.MaskCompany{
				ComID:        entry.Get("comId").Int(),
				EncryptID:    entry.Get("encryptId").String(),
				ComName:      entry.Get("comName").String(),
				LinkComNum:   int16(entry.Get("linkComNum").Int()),
				EncryptComID: entry.Get("encryptComId").String(),
			}
			if err := s.masks.Upsert(ctx, row); err != nil {
				logger.WithError(err).Warnf("Mask company %d not saved", row.ComID)
				continue
			}
			saved++
		}
		if !gjson.GetBytes(body, "zpData.hasMore").Bool() {
			break
		}
		encryptID = entries[len(entries)-1].Get("encryptId").String()
		time.Sleep(s.pageDelay)
	}
	logger.Infof("Synced %d mask companies for group %d", saved, groupID)
	return nil
}

// SyncRelations walks the interaction or deliver card list and marks each
// referenced job contacted, so past outreach made outside this tool still
// counts in the dedup rules.
func (s *Syncer) SyncRelations(ctx context.Context, group string) error {
	if group != GroupInteraction && group != GroupDeliver {
		return fmt.Errorf("unknown relation group %q", group)
	}
	page := 1
	saved := 0
	for {
		ts := time.Now().UnixMilli()
		var url string
		if group == GroupInteraction {
			url = fmt.Sprintf("%s?page=%d&tag=5&isActive=true&_=%d", s.interactionURL, page, ts)
		} else {
			url = fmt.Sprintf("%s?page=%d&_=%d", s.deliverURL, page, ts)
		}
		resp, err := s.client.R().SetContext(ctx).Get(url)
		if err != nil {
			return fmt.Errorf("relation page fetch failed: %w", err)
		}
		body := resp.Body()
		if gjson.GetBytes(body, "code").Int() != 0 {
			break
		}
		cards := gjson.GetBytes(body, "zpData.cardList").Array()
		if len(cards) == 0 {
			break
		}
		for _, card := range cards {
			id := card.Get("encryptJobId").String()
			if id == "" {
				continue
			}
			if err := s.jobs.RecordHistoricalContact(ctx, id); err != nil {
				logger.WithError(err).Warnf("Relation for job %s not saved", id)
				continue
			}
			saved++
		}
		if !gjson.GetBytes(body, "zpData.hasMore").Bool() {
			break
		}
		page++
		time.Sleep(s.pageDelay)
	}
	logger.Infof("Recorded %d historical contacts from %s relations", saved, group)
	return nil
}
