package backend

import (
	"context"
	"errors"
	"net/http"

	apperrors "github.com/aiworkforce/dashboard-server-go/internal/errors"
	"github.com/aiworkforce/dashboard-server-go/internal/model"
	"github.com/aiworkforce/dashboard-server-go/internal/util"
)

func (c *Client) ListDataSources(ctx context.Context, token string, page Page) ([]model.DataSource, error) {
	var sources []model.DataSource
	if err := c.getJSON(ctx, "/data-sources", token, page.query(), "data source list", &sources); err != nil {
		return nil, err
	}
	for i := range sources {
		if sources[i].ID == "" {
			return nil, apperrors.Decode("data source list", errors.New("data source id is missing"))
		}
	}
	if sources == nil {
		sources = []model.DataSource{}
	}
	return sources, nil
}

func (c *Client) GetDataSource(ctx context.Context, token, id string) (*model.DataSource, error) {
	var source model.DataSource
	if err := c.getJSON(ctx, resourcePath("/data-sources", id), token, nil, "data source", &source); err != nil {
		return nil, err
	}
	return checkDataSource(&source)
}

func (c *Client) CreateDataSource(ctx context.Context, token string, params model.DataSourceParams) (*model.DataSource, error) {
	if err := validateDataSource(params); err != nil {
		return nil, err
	}
	var source model.DataSource
	if err := c.sendJSON(ctx, http.MethodPost, "/data-sources", token, params, "data source", &source); err != nil {
		return nil, err
	}
	return checkDataSource(&source)
}

func (c *Client) UpdateDataSource(ctx context.Context, token, id string, params model.DataSourceParams) (*model.DataSource, error) {
	if err := validateDataSource(params); err != nil {
		return nil, err
	}
	var source model.DataSource
	if err := c.sendJSON(ctx, http.MethodPut, resourcePath("/data-sources", id), token, params, "data source", &source); err != nil {
		return nil, err
	}
	return checkDataSource(&source)
}

func (c *Client) DeleteDataSource(ctx context.Context, token, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, resourcePath("/data-sources", id), token, nil, "data source", nil)
}

// SyncDataSource asks the backend to re-index the source.
func (c *Client) SyncDataSource(ctx context.Context, token, id string) (*model.DataSource, error) {
	var source model.DataSource
	if err := c.sendJSON(ctx, http.MethodPost, resourcePath("/data-sources", id, "sync"), token, nil, "data source", &source); err != nil {
		return nil, err
	}
	return checkDataSource(&source)
}

func validateDataSource(params model.DataSourceParams) error {
	if field := params.Missing(); field != "" {
		return apperrors.MissingRequired(field)
	}
	if !util.IsValidEnum(params.SourceType, model.SourceTypes) {
		return apperrors.InvalidInput("source_type", "unsupported source type")
	}
	return nil
}

func checkDataSource(source *model.DataSource) (*model.DataSource, error) {
	if source.ID == "" {
		return nil, apperrors.Decode("data source", errors.New("data source id is missing"))
	}
	return source, nil
}
