package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/easel/internal/presentation/preview"
	"github.com/aretw0/easel/internal/presentation/tui"
	"github.com/aretw0/easel/internal/runtime"
	"github.com/aretw0/easel/pkg/domain"
)

// ApplyOptions configures RunApply.
type ApplyOptions struct {
	// DocPath holds a snapshot ({"elements": [...]}) or a bare element array.
	// A missing file starts from an empty canvas.
	DocPath string
	// CommandsPath holds a command array or a reply ({"commands": [...]}).
	CommandsPath string
	// OutPath receives the resulting snapshot. Empty means DocPath.
	OutPath string
	// PreviewPath, when set, receives a PNG rendering of the result.
	PreviewPath string

	Canvas domain.Canvas
	Logger *slog.Logger
	Out    io.Writer
	Now    func() time.Time
}

// RunApply applies a commands file to a document file without a server.
func RunApply(opts ApplyOptions) (domain.Report, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OutPath == "" {
		opts.OutPath = opts.DocPath
	}

	elements, err := readElements(opts.DocPath)
	if err != nil {
		return domain.Report{}, err
	}
	doc, err := domain.NewDocument(elements...)
	if err != nil {
		return domain.Report{}, fmt.Errorf("document %s: %w", opts.DocPath, err)
	}

	commands, err := readCommands(opts.CommandsPath)
	if err != nil {
		return domain.Report{}, err
	}

	interp := runtime.NewInterpreter(runtime.WithCanvas(opts.Canvas), runtime.WithLogger(opts.Logger))
	report := interp.Apply(doc, commands, runtime.NewID)

	snap := domain.Snapshot{Elements: doc.Elements(), UpdatedAt: opts.Now().UTC()}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return report, err
	}
	if err := os.WriteFile(opts.OutPath, append(data, '\n'), 0o644); err != nil {
		return report, fmt.Errorf("failed to write %s: %w", opts.OutPath, err)
	}

	if opts.PreviewPath != "" {
		if err := writePreview(opts.PreviewPath, interp.Serialize(doc)); err != nil {
			return report, err
		}
	}

	if opts.Out != nil {
		fmt.Fprint(opts.Out, tui.ReportMarkdown(report.Applied(), report.Outcomes))
	}
	return report, nil
}

func writePreview(path string, cc runtime.CanvasContext) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := preview.Render(f, cc); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return nil
}

func readElements(path string) ([]domain.TextElement, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var elements []domain.TextElement
	if err := json.Unmarshal(data, &elements); err == nil {
		return elements, nil
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("document %s is neither a snapshot nor an element array: %w", path, err)
	}
	return snap.Elements, nil
}

func readCommands(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var commands []any
	if err := json.Unmarshal(data, &commands); err == nil {
		return commands, nil
	}
	var reply struct {
		Commands []any `json:"commands"`
	}
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fmt.Errorf("commands %s: %w", path, err)
	}
	return reply.Commands, nil
}
