package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"

	"github.com/GabrielNunesIT/pdd/internal/model"
	"github.com/GabrielNunesIT/pdd/internal/sequencer"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type sinkReport struct {
	Sink          string         `json:"sink"`
	Kind          model.SinkKind `json:"kind"`
	BlocksWritten int64          `json:"blocks_written"`
	BytesWritten  int64          `json:"bytes_written"`
	BlocksDropped int64          `json:"blocks_dropped,omitempty"`
	FailedAtOpen  bool           `json:"failed_at_open,omitempty"`
	Error         string         `json:"error,omitempty"`
	CloseError    string         `json:"close_error,omitempty"`
}

type operationReport struct {
	Operation  int          `json:"operation"`
	RunID      string       `json:"run_id"`
	Args       string       `json:"args"`
	Status     model.Status `json:"status"`
	BlocksRead int64        `json:"blocks_read"`
	BytesRead  int64        `json:"bytes_read"`
	DurationMS int64        `json:"duration_ms"`
	Error      string       `json:"error,omitempty"`
	Sinks      []sinkReport `json:"sinks"`
}

type summaryReport struct {
	Operations []operationReport    `json:"operations"`
	Totals     map[model.Status]int `json:"totals"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func newSummaryReport(summary *sequencer.Summary) summaryReport {
	report := summaryReport{
		Operations: make([]operationReport, 0, len(summary.Results)),
		Totals:     make(map[model.Status]int),
	}

	for _, res := range summary.Results {
		op := operationReport{
			Operation:  res.Index + 1,
			RunID:      res.RunID,
			Args:       res.Operation.String(),
			Status:     res.Status(),
			BlocksRead: res.BlocksRead,
			BytesRead:  res.BytesRead,
			DurationMS: res.Duration().Milliseconds(),
			Error:      errString(res.Err),
			Sinks:      make([]sinkReport, 0, len(res.Sinks)),
		}
		for _, s := range res.Sinks {
			op.Sinks = append(op.Sinks, sinkReport{
				Sink:          s.Sink,
				Kind:          s.Kind,
				BlocksWritten: s.BlocksWritten,
				BytesWritten:  s.BytesWritten,
				BlocksDropped: s.BlocksDropped,
				FailedAtOpen:  s.FailedAtOpen,
				Error:         errString(s.Err),
				CloseError:    errString(s.CloseErr),
			})
		}
		report.Operations = append(report.Operations, op)
		report.Totals[op.Status]++
	}

	return report
}

func render(w io.Writer, format string, summary *sequencer.Summary) error {
	if format == formatJSON {
		return renderJSON(w, summary)
	}
	return renderText(w, summary)
}

func renderJSON(w io.Writer, summary *sequencer.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newSummaryReport(summary))
}

// describe returns the one-line outcome of an operation.
func describe(res *model.OperationResult) string {
	total := len(res.Sinks)
	switch res.Status() {
	case model.StatusSkipped:
		return "did not run"
	case model.StatusFailed:
		return fmt.Sprintf("failed: %v", res.Err)
	case model.StatusCancelled:
		return fmt.Sprintf("cancelled after %d blocks", res.BlocksRead)
	case model.StatusPartial:
		msg := fmt.Sprintf("replicated to %d of %d sinks", total-res.FailedSinks(), total)
		if dropped := res.BlocksDropped(); dropped > 0 {
			msg += fmt.Sprintf(", %d blocks dropped", dropped)
		}
		return msg
	default:
		return fmt.Sprintf("replicated to %d of %d sinks", total, total)
	}
}

func renderText(w io.Writer, summary *sequencer.Summary) error {
	var b strings.Builder

	for _, res := range summary.Results {
		fmt.Fprintf(&b, "operation %d: %s\n", res.Index+1, describe(res))
		fmt.Fprintf(&b, "  %s\n", res.Operation)
		if !res.Started {
			continue
		}
		fmt.Fprintf(&b, "  read %d blocks, %d bytes in %v\n", res.BlocksRead, res.BytesRead, res.Duration())

		for _, s := range res.Sinks {
			switch {
			case s.FailedAtOpen:
				fmt.Fprintf(&b, "  %s: failed at open: %v\n", s.Sink, s.Err)
			case s.Err != nil:
				fmt.Fprintf(&b, "  %s: %d blocks, %d bytes, then failed: %v\n", s.Sink, s.BlocksWritten, s.BytesWritten, s.Err)
			case s.BlocksDropped > 0:
				fmt.Fprintf(&b, "  %s: %d blocks, %d bytes, %d blocks dropped\n", s.Sink, s.BlocksWritten, s.BytesWritten, s.BlocksDropped)
			default:
				fmt.Fprintf(&b, "  %s: %d blocks, %d bytes\n", s.Sink, s.BlocksWritten, s.BytesWritten)
			}
			if s.CloseErr != nil {
				fmt.Fprintf(&b, "  %s: close failed: %v\n", s.Sink, s.CloseErr)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
