package bento

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"bentobot/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// DayOrderStatus is one day's order situation as the site reports it.
type DayOrderStatus struct {
	// YYYY-MM-DD
	Date string
	// display name -> quantity, only quantities above zero
	Orders       map[string]int
	Holiday      bool
	HolidayLabel string
}

// the detail form renders the already-ordered quantity for each slot
// in a hidden "[i].変更前数量" input
var currentQuantityId = regexp.MustCompile(`^\[(\d+)\]\.変更前数量$`)

// DayStatus reads the order-detail form for one day.
func (c *Client) DayStatus(ctx context.Context, date string) (DayOrderStatus, error) {
	ctx, span := tracer.Start(ctx, "client:DayStatus")
	defer span.End()

	orderDate, err := NormalizeDate(date)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return DayOrderStatus{}, err
	}

	ok, err := c.EnsureAuthenticated(ctx, false)
	if err != nil {
		return DayOrderStatus{}, err
	}
	if !ok {
		span.SetStatus(codes.Error, LoginFailed.Error())
		return DayOrderStatus{}, LoginFailed
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("Referer", c.BaseUrl.String()+"/").
		Get(c.detailPageUrl(orderDate))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch order page")
		return DayOrderStatus{}, err
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "failed to fetch order page")
		return DayOrderStatus{}, fmt.Errorf("order page returned %s", res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse order page")
		return DayOrderStatus{}, err
	}

	status := DayOrderStatus{Date: date, Orders: map[string]int{}}
	doc.Find("input").Each(func(_ int, input *goquery.Selection) {
		groups := currentQuantityId.FindStringSubmatch(input.AttrOr("id", ""))
		if len(groups) < 2 {
			return
		}
		idx, err := strconv.Atoi(groups[1])
		if err != nil {
			return
		}
		qty, err := strconv.Atoi(input.AttrOr("value", ""))
		if err != nil || qty <= 0 {
			return
		}
		status.Orders[MenuSelection(idx).String()] = qty
	})
	return status, nil
}

var dayCellPattern = regexp.MustCompile(`^(\d+)\(.\)`)

// go's \w and \s classes are ascii-only, the site text is japanese
// with ideographic spaces between name and count
var orderTokenPattern = regexp.MustCompile(`([\p{L}\p{N}_]+(?:らんち|ランチ|その他))[\s\p{Zs}]*(\d+)個`)

// MonthStatus scrapes the monthly listing into per-day rows. The site
// addresses listing pages by month number.
func (c *Client) MonthStatus(ctx context.Context, year int, month int) ([]DayOrderStatus, error) {
	ctx, span := tracer.Start(ctx, "client:MonthStatus")
	defer span.End()

	ok, err := c.EnsureAuthenticated(ctx, false)
	if err != nil {
		return nil, err
	}
	if !ok {
		span.SetStatus(codes.Error, LoginFailed.Error())
		return nil, LoginFailed
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("Referer", c.BaseUrl.String()+"/").
		SetQueryParam("idx", strconv.Itoa(month)).
		Get("/Order")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch monthly listing")
		return nil, err
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "failed to fetch monthly listing")
		return nil, fmt.Errorf("monthly listing returned %s", res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse monthly listing")
		return nil, err
	}

	var results []DayOrderStatus
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		dayText := htmlutil.GetStrippedText(cells.Get(0))
		groups := dayCellPattern.FindStringSubmatch(dayText)
		if len(groups) < 2 {
			return
		}
		day, err := strconv.Atoi(groups[1])
		if err != nil {
			return
		}
		date := fmt.Sprintf("%d-%02d-%02d", year, month, day)

		orderText := htmlutil.GetStrippedText(cells.Get(1))
		if strings.Contains(orderText, "休業日") {
			// holiday wins even when the cell also carries counts
			results = append(results, DayOrderStatus{
				Date:         date,
				Holiday:      true,
				HolidayLabel: orderText,
			})
			return
		}

		orders := map[string]int{}
		for _, m := range orderTokenPattern.FindAllStringSubmatch(orderText, -1) {
			name := m[1]
			qty, err := strconv.Atoi(m[2])
			if err != nil || qty <= 0 {
				continue
			}
			// the monthly listing shortens 和風ランチ to 和風らんち
			if strings.Contains(name, "和風") {
				name = "和風ランチ"
			}
			orders[name] = qty
		}
		results = append(results, DayOrderStatus{Date: date, Orders: orders})
	})

	slog.DebugContext(ctx, "parsed monthly listing", "year", year, "month", month, "days", len(results))
	return results, nil
}
