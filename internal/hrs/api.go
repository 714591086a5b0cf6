package hrs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Reservation modes of a quota record.
const (
	ModeServiced   = "SERVICED"
	ModeUnserviced = "UNSERVICED"
	ModeClosed     = "CLOSED"
)

// QuotaDTO is the platform's wire shape of a quota record. Dates travel as
// dd.mm.yyyy; DateTo is exclusive. ID 0 or -1 marks a record not yet created.
// The recurrence fields are unused and always null.
type QuotaDTO struct {
	ID              int64            `json:"id"`
	Title           string           `json:"title"`
	ReservationMode string           `json:"reservationMode"`
	Capacity        int              `json:"capacity"`
	DateFrom        string           `json:"dateFrom"`
	DateTo          string           `json:"dateTo"`
	BedCategories   []BedCategoryDTO `json:"hutBedCategoryDTOs"`
	Languages       []LanguageDTO    `json:"languagesDataDTOs"`

	SeriesBeginDate *string `json:"seriesBeginDate"`
	SeriesEndDate   *string `json:"seriesEndDate"`
	RecurringMode   *string `json:"recurringMode"`
}

// BedCategoryDTO carries one category's capacity.
type BedCategoryDTO struct {
	CategoryID          int `json:"categoryId"`
	TotalSleepingPlaces int `json:"totalSleepingPlaces"`
}

// LanguageDTO is a per-language description of a quota record.
type LanguageDTO struct {
	Language    string `json:"language"`
	Description string `json:"description"`
}

// DeleteOptions are the three boolean flags the delete endpoint takes as
// query parameters.
type DeleteOptions struct {
	PermitOverbook   bool
	PermitModeChange bool
	SeriesWide       bool
}

// quotaPage is the platform's paged list response.
type quotaPage struct {
	Content []QuotaDTO `json:"content"`
	Last    bool       `json:"last"`
}

// ListQuotas pages through every quota record whose date range intersects
// [from, to). Transport or HTTP failure on any page fails the whole listing;
// acting on partial overlap data is worse than not acting.
func (c *Client) ListQuotas(ctx context.Context, from, to time.Time) ([]QuotaDTO, error) {
	if err := c.EnsureSession(ctx); err != nil {
		return nil, err
	}

	var all []QuotaDTO
	for page := 0; ; page++ {
		q := url.Values{}
		q.Set("hutId", strconv.Itoa(c.config.HutID))
		q.Set("page", strconv.Itoa(page))
		q.Set("size", strconv.Itoa(c.config.PageSize))
		q.Set("dateFrom", FormatDate(from))
		q.Set("dateTo", FormatDate(to))

		resp, err := c.Do(ctx, http.MethodGet, "/api/v1/manage/hutQuota?"+q.Encode(), nil, nil)
		if err != nil {
			return nil, err
		}
		if !resp.OK() {
			return nil, fmt.Errorf("listing quotas: status %d: %s", resp.StatusCode, resp.Body)
		}

		var pg quotaPage
		if err := json.Unmarshal(resp.Body, &pg); err != nil {
			return nil, fmt.Errorf("decoding quota page %d: %w", page, err)
		}

		all = append(all, pg.Content...)
		if pg.Last || len(pg.Content) == 0 {
			return all, nil
		}
	}
}

// DeleteQuota removes one quota record. The vendor's "already deleted" reply
// is surfaced as OutcomeAlreadySatisfied, not as a failure.
func (c *Client) DeleteQuota(ctx context.Context, quotaID int64, opts DeleteOptions) (Outcome, VendorMessage, error) {
	if err := c.EnsureSession(ctx); err != nil {
		return OutcomeTransportError, VendorMessage{}, err
	}

	q := url.Values{}
	q.Set("hutId", strconv.Itoa(c.config.HutID))
	q.Set("canOverbook", strconv.FormatBool(opts.PermitOverbook))
	q.Set("canChangeMode", strconv.FormatBool(opts.PermitModeChange))
	q.Set("allSeries", strconv.FormatBool(opts.SeriesWide))

	path := fmt.Sprintf("/api/v1/manage/hutQuota/%d?%s", quotaID, q.Encode())
	resp, err := c.Do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return OutcomeTransportError, VendorMessage{}, err
	}

	msg := parseVendorMessage(resp.Body)
	if !resp.OK() {
		if msg.Message == "" {
			msg.Message = fmt.Sprintf("delete returned status %d", resp.StatusCode)
		}
		return OutcomeRejected, msg, nil
	}
	return classifyDelete(msg), msg, nil
}

// SaveQuota creates (id 0 or -1) or updates a quota record. Success requires
// the vendor's explicit "saved" message id; any other reply is a rejection.
func (c *Client) SaveQuota(ctx context.Context, quota QuotaDTO) (Outcome, VendorMessage, error) {
	if err := c.EnsureSession(ctx); err != nil {
		return OutcomeTransportError, VendorMessage{}, err
	}

	body, err := json.Marshal(quota)
	if err != nil {
		return OutcomeRejected, VendorMessage{}, fmt.Errorf("encoding quota: %w", err)
	}

	path := "/api/v1/manage/hutQuota?hutId=" + strconv.Itoa(c.config.HutID)
	resp, err := c.Do(ctx, http.MethodPost, path, body, nil)
	if err != nil {
		return OutcomeTransportError, VendorMessage{}, err
	}

	msg := parseVendorMessage(resp.Body)
	if !resp.OK() {
		if msg.Message == "" {
			msg.Message = fmt.Sprintf("save returned status %d", resp.StatusCode)
		}
		return OutcomeRejected, msg, nil
	}
	return classifySave(msg), msg, nil
}

// parseVendorMessage pulls the business-level reply out of a response body.
// Bodies that are not the expected shape yield a zero message.
func parseVendorMessage(body []byte) VendorMessage {
	var msg VendorMessage
	_ = json.Unmarshal(body, &msg)
	return msg
}
