package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emmett/affect/internal/affect"
)

// Event represents a system event
type Event struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Formatter is the interface for result formatters
type Formatter interface {
	// WriteResult writes one estimate
	WriteResult(result affect.Result) error

	// WriteEvent writes a system event (e.g., pause, capture errors)
	WriteEvent(eventType, message string) error

	// Flush ensures all buffered output is written
	Flush() error

	// Close closes the formatter and releases resources
	Close() error
}

// NewFormatter creates a formatter by name: console, json or text
func NewFormatter(format string, writer io.Writer) (Formatter, error) {
	switch strings.ToLower(format) {
	case "console":
		return NewConsoleFormatter(writer), nil
	case "json":
		return NewJSONFormatter(writer), nil
	case "text":
		return NewPlainTextFormatter(writer), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s (valid: console, json, text)", format)
	}
}

// AsSink adapts a formatter to receive pipeline results
func AsSink(f Formatter) affect.Sink {
	return affect.SinkFunc(f.WriteResult)
}

// JSONFormatter outputs one JSON object per result
type JSONFormatter struct {
	encoder *json.Encoder
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(writer io.Writer) *JSONFormatter {
	return &JSONFormatter{
		encoder: json.NewEncoder(writer),
	}
}

// WriteResult writes a result in JSON format
func (j *JSONFormatter) WriteResult(result affect.Result) error {
	return j.encoder.Encode(result)
}

// WriteEvent writes a system event
func (j *JSONFormatter) WriteEvent(eventType, message string) error {
	event := Event{
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	}
	return j.encoder.Encode(event)
}

// Flush ensures all buffered output is written
func (j *JSONFormatter) Flush() error {
	// JSON encoder writes immediately, nothing to flush
	return nil
}

// Close closes the formatter
func (j *JSONFormatter) Close() error {
	return nil
}

// PlainTextFormatter outputs one line per result
type PlainTextFormatter struct {
	writer io.Writer
}

// NewPlainTextFormatter creates a new plain text formatter
func NewPlainTextFormatter(writer io.Writer) *PlainTextFormatter {
	return &PlainTextFormatter{
		writer: writer,
	}
}

// WriteResult writes a result in plain text
func (p *PlainTextFormatter) WriteResult(r affect.Result) error {
	e := r.Emotion
	_, err := fmt.Fprintf(p.writer,
		"[%s] #%d noise=%s context=%s neutral=%.3f angry=%.3f happy=%.3f sad=%.3f anxious=%.3f\n",
		r.Window.Timestamp.Format("15:04:05"), r.Index, r.Noise, r.Context,
		e.Neutral, e.Angry, e.Happy, e.Sad, e.Anxious)
	return err
}

// WriteEvent writes a system event
func (p *PlainTextFormatter) WriteEvent(eventType, message string) error {
	timestamp := time.Now().Format("15:04:05")
	_, err := fmt.Fprintf(p.writer, "[%s] [%s] %s\n", timestamp, eventType, message)
	return err
}

// Flush ensures all buffered output is written
func (p *PlainTextFormatter) Flush() error {
	return nil
}

// Close closes the formatter
func (p *PlainTextFormatter) Close() error {
	return nil
}

// ConsoleFormatter writes a multi-line report per result for a terminal
type ConsoleFormatter struct {
	writer io.Writer
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter(writer io.Writer) *ConsoleFormatter {
	return &ConsoleFormatter{writer: writer}
}

// WriteResult writes a result as a report block
func (c *ConsoleFormatter) WriteResult(r affect.Result) error {
	w, m, e := r.Window, r.Metrics, r.Emotion

	var b strings.Builder
	fmt.Fprintf(&b, "\n=== Window %d (%s) ===\n", r.Index, w.Timestamp.Format("15:04:05"))
	fmt.Fprintf(&b, "Features:  amplitude %.5f (var %.6f)  centroid %.2f (var %.2f)  zcr %.4f\n",
		w.AvgAmplitude, w.VarAmplitude, w.AvgFrequency, w.VarFrequency, w.AvgZCR)
	fmt.Fprintf(&b, "Trend:     amplitude %+.1f%%  centroid %+.1f%%  amp var %+.1f%%  centroid var %+.1f%%\n",
		m.AmpPct, m.FreqPct, m.VarAmpPct, m.VarFreqPct)
	fmt.Fprintf(&b, "Noise:     %s\n", r.Noise)
	fmt.Fprintf(&b, "Context:   %s\n", r.Context)
	fmt.Fprintf(&b, "Emotion:   neutral %.3f  angry %.3f  happy %.3f  sad %.3f  anxious %.3f  -> %s\n",
		e.Neutral, e.Angry, e.Happy, e.Sad, e.Anxious, e.Dominant())

	_, err := io.WriteString(c.writer, b.String())
	return err
}

// WriteEvent writes a system event
func (c *ConsoleFormatter) WriteEvent(eventType, message string) error {
	_, err := fmt.Fprintf(c.writer, "[%s] %s\n", eventType, message)
	return err
}

// Flush ensures all buffered output is written
func (c *ConsoleFormatter) Flush() error {
	return nil
}

// Close closes the formatter
func (c *ConsoleFormatter) Close() error {
	return nil
}
