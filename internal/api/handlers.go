package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/parser"
	"trade-report-lab/internal/pipeline"
	"trade-report-lab/internal/reporting"
	"trade-report-lab/internal/simulation"
	"trade-report-lab/internal/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// createReport handles POST /api/v1/reports
func (s *Server) createReport(c *gin.Context) {
	in, ok := s.readUpload(c)
	if !ok {
		return
	}

	report, ok := s.analyze(c, s.analyzer, in)
	if !ok {
		return
	}

	s.cache.Set(report)
	s.logger.Info("report created", zap.String("report_id", report.ReportID), zap.String("source", in.Name))
	c.JSON(http.StatusCreated, toDetail(report))
}

// verifyReport handles POST /api/v1/reports/:id/verify
// The upload is re-analyzed without persistence and compared with the stored report.
func (s *Server) verifyReport(c *gin.Context) {
	id := c.Param("id")
	in, ok := s.readUpload(c)
	if !ok {
		return
	}

	replayed, ok := s.analyze(c, s.analyzer.Detached(), in)
	if !ok {
		return
	}

	result, err := s.verifier.Verify(c.Request.Context(), id, replayed)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(c, http.StatusNotFound, "REPORT_NOT_FOUND", fmt.Sprintf("report %s not found", id))
		return
	}
	if err != nil {
		s.internalError(c, "Verify", err)
		return
	}
	if !result.Match {
		s.logger.Warn("report verification diverged",
			zap.String("report_id", id),
			zap.Int("divergences", len(result.Divergences)),
		)
	}
	c.JSON(http.StatusOK, result)
}

// readUpload parses the multipart upload. On failure the error response has
// been written.
func (s *Server) readUpload(c *gin.Context) (pipeline.Input, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
				fmt.Sprintf("upload exceeds %d bytes", s.opts.MaxUploadBytes))
			return pipeline.Input{}, false
		}
		writeError(c, http.StatusBadRequest, "MISSING_FILE", "multipart field \"file\" is required")
		return pipeline.Input{}, false
	}

	in, err := s.uploadInput(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return pipeline.Input{}, false
	}

	f, err := fh.Open()
	if err != nil {
		s.internalError(c, "open upload", err)
		return pipeline.Input{}, false
	}
	defer f.Close()

	rows, err := parser.ReadRows(fh.Filename, f)
	if err != nil {
		writeError(c, http.StatusUnprocessableEntity, "UNREADABLE_FILE", err.Error())
		return pipeline.Input{}, false
	}
	in.Name = fh.Filename
	in.Rows = rows
	return in, true
}

func (s *Server) analyze(c *gin.Context, analyzer *pipeline.Analyzer, in pipeline.Input) (*reporting.Report, bool) {
	report, err := analyzer.Analyze(c.Request.Context(), in)
	switch {
	case errors.Is(err, parser.ErrUnparseableFile):
		writeError(c, http.StatusUnprocessableEntity, "UNPARSEABLE_FILE", err.Error())
		return nil, false
	case errors.Is(err, simulation.ErrInvalidParams):
		writeError(c, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return nil, false
	case err != nil:
		s.internalError(c, "Analyze", err)
		return nil, false
	}
	return report, true
}

// uploadInput reads the optional form parameters of an upload.
func (s *Server) uploadInput(c *gin.Context) (pipeline.Input, error) {
	var in pipeline.Input
	in.Symbol = strings.TrimSpace(c.PostForm("symbol"))

	if v := strings.TrimSpace(c.PostForm("initial_balance")); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return in, fmt.Errorf("initial_balance: %q is not a number", v)
		}
		in.InitialBalance = decimal.NewNullDecimal(d)
	}

	runs, rok, err := formInt(c, "runs")
	if err != nil {
		return in, err
	}
	horizon, hok, err := formInt(c, "horizon")
	if err != nil {
		return in, err
	}
	seed, sok, err := formInt(c, "seed")
	if err != nil {
		return in, err
	}
	if !rok && !hok && !sok {
		return in, nil
	}

	// A zero starting equity lets the analyzer start from the final equity.
	sim := s.opts.Analysis.Simulation
	if rok {
		sim.Runs = runs
	}
	if hok {
		sim.Horizon = horizon
	}
	if sok {
		if seed < 0 {
			return in, errors.New("seed: must not be negative")
		}
		sim.Seed = uint64(seed)
	}
	analysis := s.opts.Analysis
	analysis.Simulation = sim
	if err := analysis.Validate(); err != nil {
		return in, err
	}
	in.Simulation = &domain.SimulationParams{
		Runs:           sim.Runs,
		Horizon:        sim.Horizon,
		StartingEquity: sim.StartingEquity,
		Seed:           sim.Seed,
		Workers:        sim.Workers,
	}
	return in, nil
}

func formInt(c *gin.Context, name string) (int, bool, error) {
	v := strings.TrimSpace(c.PostForm(name))
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %q is not an integer", name, v)
	}
	return n, true, nil
}

// listReports handles GET /api/v1/reports
// With input_hash set, only reports of that input are listed.
func (s *Server) listReports(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), defaultListLimit, 1, maxListLimit)

	var (
		summaries []*domain.ReportSummary
		err       error
	)
	if hash := c.Query("input_hash"); hash != "" {
		summaries, err = s.reports.GetByInputHash(c.Request.Context(), hash)
		if len(summaries) > limit {
			summaries = summaries[:limit]
		}
	} else {
		summaries, err = s.reports.List(c.Request.Context(), limit)
	}
	if err != nil {
		s.internalError(c, "List", err)
		return
	}

	rows := make([]ReportSummary, 0, len(summaries))
	for _, r := range summaries {
		rows = append(rows, toSummary(*r))
	}
	c.JSON(http.StatusOK, gin.H{"reports": rows, "count": len(rows)})
}

// getReport handles GET /api/v1/reports/:id
func (s *Server) getReport(c *gin.Context) {
	id := c.Param("id")
	if r, ok := s.cache.Get(id); ok {
		c.JSON(http.StatusOK, toDetail(r))
		return
	}

	summary, err := s.reports.GetByID(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(c, http.StatusNotFound, "REPORT_NOT_FOUND", fmt.Sprintf("report %s not found", id))
		return
	}
	if err != nil {
		s.internalError(c, "GetByID", err)
		return
	}
	c.JSON(http.StatusOK, ReportDetail{Summary: toSummary(*summary)})
}

// getTradesCSV handles GET /api/v1/reports/:id/trades.csv
// Parsed trades are not archived, so only cached reports can serve them.
func (s *Server) getTradesCSV(c *gin.Context) {
	id := c.Param("id")
	r, ok := s.cache.Get(id)
	if !ok {
		writeError(c, http.StatusNotFound, "TRADES_NOT_AVAILABLE",
			fmt.Sprintf("trades for report %s are no longer available", id))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+"-trades.csv"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := reporting.WriteTradesCSV(c.Writer, r.Trades); err != nil {
		s.logger.Error("write trades csv", zap.String("report_id", id), zap.Error(err))
	}
}

// getEquity handles GET /api/v1/reports/:id/equity
func (s *Server) getEquity(c *gin.Context) {
	id := c.Param("id")
	if r, ok := s.cache.Get(id); ok {
		c.JSON(http.StatusOK, gin.H{"report_id": id, "points": toEquityPoints(r.Equity.Points)})
		return
	}

	if _, err := s.reports.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(c, http.StatusNotFound, "REPORT_NOT_FOUND", fmt.Sprintf("report %s not found", id))
			return
		}
		s.internalError(c, "GetByID", err)
		return
	}

	points, err := s.curves.GetByReportID(c.Request.Context(), id)
	if err != nil {
		s.internalError(c, "GetByReportID", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report_id": id, "points": toEquityPoints(points)})
}

func parseLimit(v string, def, min, max int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		return def
	}
	return n
}
