package sheetsclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/jakechorley/shift-roster/internal/config"
	"github.com/jakechorley/shift-roster/pkg/utils"
)

// Client reads the worker sheet and writes published rosters
type Client struct {
	service *sheets.Service
	token   *oauth2.Token
}

// NewClient authenticates (running the browser flow when no usable token is
// stored for env) and builds the Sheets service. The token also carries the
// Gmail send scope so the notifier can share it.
func NewClient(ctx context.Context, oauthCfg *config.OAuthClientConfig, env string, logger *zap.Logger) (*Client, error) {
	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth config: %w", err)
	}

	token, err := utils.GetTokenWithFlow(ctx, oauthConfig, env, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth token: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithHTTPClient(oauthConfig.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{service: service, token: token}, nil
}

func (c *Client) Token() *oauth2.Token {
	return c.token
}

func (c *Client) readRange(spreadsheetID, a1Range string) ([][]interface{}, error) {
	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, a1Range).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", a1Range, err)
	}
	return resp.Values, nil
}

// ensureTab adds a tab called title unless the spreadsheet already has one.
// It reports whether the tab was already there.
func (c *Client) ensureTab(spreadsheetID, title string) (bool, error) {
	spreadsheet, err := c.service.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Do()
	if err != nil {
		return false, fmt.Errorf("failed to get spreadsheet metadata: %w", err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return true, nil
		}
	}

	add := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}},
		}},
	}
	resp, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, add).Do()
	if err != nil {
		return false, fmt.Errorf("failed to add tab %q: %w", title, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil {
		return false, fmt.Errorf("unexpected response adding tab %q", title)
	}
	return false, nil
}
