package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/incident-admin/internal/models"
	"github.com/noah-isme/incident-admin/internal/repository"
	"github.com/noah-isme/incident-admin/internal/table"
	"github.com/noah-isme/incident-admin/internal/usertable"
	appErrors "github.com/noah-isme/incident-admin/pkg/errors"
	"github.com/noah-isme/incident-admin/pkg/export"
)

type userPageSource interface {
	FetchPage(ctx context.Context, q repository.UserPageQuery) ([]models.User, int, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	MaxRows int
	Title   string
}

// ExportResult is a rendered export ready to be served.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
	Rows        int
	Truncated   bool
}

// ExportService renders the filtered users list as CSV or PDF.
type ExportService struct {
	users  userPageSource
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	cfg    ExportConfig
	now    func() time.Time
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(users userPageSource, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 1000
	}
	if cfg.Title == "" {
		cfg.Title = "Users"
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{users: users, csv: csv, pdf: pdf, logger: logger, cfg: cfg, now: time.Now}
}

// ExportUsers renders every user matching the search and sorting of state, ignoring pagination.
func (s *ExportService) ExportUsers(ctx context.Context, state table.State, format export.Format) (*ExportResult, error) {
	users, total, err := s.users.FetchPage(ctx, repository.UserPageQuery{
		Offset:  0,
		Limit:   s.cfg.MaxRows,
		Sorting: state.Sorting,
		Search:  strings.TrimSpace(state.Search),
	})
	if err != nil {
		return nil, mapListError(err)
	}

	dataset := s.buildUserDataset(users)
	var payload []byte
	switch format {
	case export.FormatCSV:
		payload, err = s.csv.Render(dataset)
	case export.FormatPDF:
		payload, err = s.pdf.Render(dataset, dataset.Title)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	result := &ExportResult{
		Filename:    s.buildFilename(state.Search, format),
		ContentType: format.ContentType(),
		Payload:     payload,
		Rows:        len(users),
		Truncated:   total > len(users),
	}
	if result.Truncated {
		s.logger.Info("users export truncated", zap.Int("rows", len(users)), zap.Int("matching", total))
	}
	return result, nil
}

func (s *ExportService) buildUserDataset(users []models.User) export.Dataset {
	rows := make([]map[string]string, 0, len(users))
	for _, u := range users {
		status, _ := usertable.StatusBadge(u.IsActive)
		rows = append(rows, map[string]string{
			"Name":       u.Name,
			"Email":      u.Email,
			"Role":       u.Role.Label(),
			"Status":     status,
			"Joined":     u.CreatedAt.UTC().Format("2006-01-02"),
			"Updated At": u.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{
		Title:   s.cfg.Title,
		Headers: []string{"Name", "Email", "Role", "Status", "Joined", "Updated At"},
		Widths:  []float64{3, 4, 2, 1.5, 2, 3},
		Rows:    rows,
	}
}

func (s *ExportService) buildFilename(search string, format export.Format) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("users_%s_%s.%s", sanitizeFilename(strings.TrimSpace(search)), timestamp, format)
}

func sanitizeFilename(raw string) string {
	result := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		case r == ' ', r == '_', r == '.':
			return '_'
		}
		return -1
	}, raw)
	if result == "" {
		return "all"
	}
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
