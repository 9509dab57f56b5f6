// Package analytics builds, saves and lists health analytics over uploaded medical reports.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vipulchinmay/projectaushadX/internal/decode"
	"github.com/vipulchinmay/projectaushadX/internal/extract"
	"github.com/vipulchinmay/projectaushadX/internal/llm"
	"github.com/vipulchinmay/projectaushadX/internal/scan"
	"github.com/vipulchinmay/projectaushadX/internal/shared/metrics"
	"github.com/vipulchinmay/projectaushadX/internal/shared/storage/object"
	"github.com/vipulchinmay/projectaushadX/internal/shared/telemetry"
	"github.com/vipulchinmay/projectaushadX/internal/shared/util"
)

var (
	// ErrNoData means the request carried no profile or no reports.
	ErrNoData = errors.New("no data provided")
	// ErrMissingFields means a save request lacked user_id or analytics.
	ErrMissingFields = errors.New("missing user_id or analytics")
	// ErrNoPDFText means a PDF report has no text layer to read.
	ErrNoPDFText = errors.New("pdf has no text layer")
)

const (
	keyPrefix       = "analytics/"
	filePrefix      = "health_analytics_"
	timestampLayout = "20060102_150405"
	maxSaveAttempts = 100
	defaultWorkers  = 4
)

var historySuffix = regexp.MustCompile(`^(\d{8}_\d{6})(_\d+)?\.json$`)

// Service runs the analytics pipeline and owns the persisted records.
type Service struct {
	OCR     scan.TextRecognizer
	LLM     llm.Client
	Store   object.ObjectStore
	Workers int
	Now     func() time.Time
}

// NewService constructs a Service with the wall clock.
func NewService(ocr scan.TextRecognizer, gen llm.Client, store object.ObjectStore, workers int) *Service {
	return &Service{OCR: ocr, LLM: gen, Store: store, Workers: workers, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

type reportOutcome struct {
	extraction extract.MedicalExtraction
	err        error
}

// Analyze extracts every report, asks the model for analytics and annotates the record.
// A failing report is skipped and listed; only a failed generation fails the batch.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error) {
	if req.UserData == nil || len(req.MedicalReports) == 0 {
		return AnalyzeResult{}, ErrNoData
	}

	outcomes := make([]reportOutcome, len(req.MedicalReports))
	workers := s.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, report := range req.MedicalReports {
		i, report := i, report
		g.Go(func() error {
			ext, err := s.processReport(gctx, i, report)
			outcomes[i] = reportOutcome{extraction: ext, err: err}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return AnalyzeResult{}, err
	}

	extracted := make([]extract.MedicalExtraction, 0, len(outcomes))
	failed := make([]FailedReport, 0)
	for i, o := range outcomes {
		if o.err != nil {
			metrics.IncReportFailed()
			telemetry.Warn("analytics.report_failed", map[string]any{
				"index": i,
				"name":  reportName(i, req.MedicalReports[i]),
				"err":   o.err,
			})
			failed = append(failed, FailedReport{Index: i, Name: reportName(i, req.MedicalReports[i]), Error: o.err.Error()})
			continue
		}
		extracted = append(extracted, o.extraction)
	}

	prompt := llm.HealthAnalyticsPrompt(req.UserData.prompt(), extracted)
	answer, err := llm.Complete(ctx, s.LLM, prompt, llm.Options{JSON: true})
	if err != nil {
		return AnalyzeResult{}, err
	}

	outcome := Interpret(answer)
	degraded := false
	if d, ok := outcome.(Degraded); ok {
		degraded = true
		metrics.IncDegraded()
		telemetry.Warn("analytics.degraded", map[string]any{"reason": d.Reason, "answer_length": len(d.RawText)})
	}

	record := outcome.Record()
	record["analysis_date"] = s.now().Format(time.RFC3339)
	record["reports_processed"] = len(extracted)
	record["user_id"] = resolveUserID(req)

	return AnalyzeResult{
		Analytics: record,
		Extracted: extracted,
		Failed:    failed,
		Degraded:  degraded,
	}, nil
}

func (s *Service) processReport(ctx context.Context, index int, report ReportInput) (extract.MedicalExtraction, error) {
	name := reportName(index, report)
	start := time.Now()
	doc, err := decode.DecodeDocument(report.Base64)
	metrics.ObserveStage("decode", time.Since(start))
	if err != nil {
		return extract.MedicalExtraction{}, err
	}

	var text string
	if doc.IsPDF() {
		text, err = extract.TextFromPDF(doc.PDF)
		if err != nil {
			return extract.MedicalExtraction{}, err
		}
		if text == "" {
			return extract.MedicalExtraction{}, ErrNoPDFText
		}
	} else {
		res, err := s.OCR.Recognize(ctx, *doc.Image)
		if err != nil {
			return extract.MedicalExtraction{}, err
		}
		text = res.Text
	}

	start = time.Now()
	ext := extract.Medical(name, text)
	metrics.ObserveStage("extract", time.Since(start))
	return ext, nil
}

func reportName(index int, report ReportInput) string {
	if name := strings.TrimSpace(report.Name); name != "" {
		return name
	}
	return fmt.Sprintf("report_%d", index+1)
}

func resolveUserID(req AnalyzeRequest) string {
	if id := strings.TrimSpace(req.UserID); id != "" {
		return id
	}
	if req.UserData != nil {
		if id := req.UserData.ID.String(); id != "" {
			return id
		}
	}
	return "anonymous"
}

func userPrefix(userID string) string {
	return keyPrefix + filePrefix + util.KeySegment(userID) + "_"
}

// Save persists analytics as a new record and returns its file name.
// A record is never overwritten: a same-second collision gets a numeric suffix.
func (s *Service) Save(ctx context.Context, req SaveRequest) (string, error) {
	if strings.TrimSpace(req.UserID) == "" || len(req.Analytics) == 0 {
		return "", ErrMissingFields
	}
	body, err := json.MarshalIndent(req.Analytics, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode analytics: %w", err)
	}

	base := userPrefix(req.UserID) + s.now().Format(timestampLayout)
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		key := base + ".json"
		if attempt > 0 {
			key = base + "_" + strconv.Itoa(attempt) + ".json"
		}
		_, err := s.Store.Create(ctx, key, "application/json", bytes.NewReader(body))
		if errors.Is(err, object.ErrExists) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("save analytics: %w", err)
		}
		telemetry.Info("analytics.saved", map[string]any{"key": key, "bytes": len(body)})
		return path.Base(key), nil
	}
	return "", fmt.Errorf("save analytics: %w", object.ErrExists)
}

type historyItem struct {
	entry HistoryEntry
	at    time.Time
}

// History lists the user's saved records, newest first. Unreadable records are skipped.
func (s *Service) History(ctx context.Context, userID string) ([]HistoryEntry, error) {
	prefix := userPrefix(userID)
	keys, err := s.Store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list analytics: %w", err)
	}

	items := make([]historyItem, 0, len(keys))
	for _, key := range keys {
		m := historySuffix.FindStringSubmatch(strings.TrimPrefix(key, prefix))
		if !strings.HasPrefix(key, prefix) || m == nil {
			continue
		}
		fileTime, _ := time.Parse(timestampLayout, m[1])
		item, err := s.readRecord(ctx, key, fileTime)
		if err != nil {
			telemetry.Warn("analytics.history_skip", map[string]any{"key": key, "err": err})
			continue
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].at.Equal(items[j].at) {
			return items[i].at.After(items[j].at)
		}
		return items[i].entry.Filename > items[j].entry.Filename
	})
	out := make([]HistoryEntry, 0, len(items))
	for _, item := range items {
		out = append(out, item.entry)
	}
	return out, nil
}

func (s *Service) readRecord(ctx context.Context, key string, fileTime time.Time) (historyItem, error) {
	rc, err := s.Store.Open(ctx, key)
	if err != nil {
		return historyItem{}, err
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return historyItem{}, err
	}
	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		return historyItem{}, fmt.Errorf("parse record: %w", err)
	}

	at := fileTime
	date := fileTime.Format(time.RFC3339)
	if v, ok := record["analysis_date"].(string); ok && v != "" {
		date = v
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			at = parsed
		}
	}
	return historyItem{
		entry: HistoryEntry{
			Filename:     path.Base(key),
			Date:         date,
			OverallScore: record["overall_health_score"],
			HealthStatus: record["health_status"],
		},
		at: at,
	}, nil
}
