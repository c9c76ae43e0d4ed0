package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

var (
	markPage     int
	markListPage int
	markPoints   string
	markAt       string
	markText     string
	markZoom     float64
	markOrigin   string
	markJSON     bool
)

var markCmd = &cobra.Command{
	Use:   "mark",
	Short: "Manage freehand marks and text stamps on a document",
	Long: `Draw, stamp, erase and list marks on a document subject.

Coordinates are viewport coordinates: they are divided by --zoom (default
from settings) after --origin is subtracted, so the stored marks do not
depend on how the page was displayed.`,
}

var markDrawCmd = &cobra.Command{
	Use:   "draw [subject-id]",
	Short: "Draw a freehand path",
	Long: `Draw a freehand path through the given points, as a pen stroke would.

Example:
  marginalia mark draw d-1 --page 2 --points "10,10 40,25 80,30"`,
	Args: cobra.ExactArgs(1),
	RunE: runMarkDraw,
}

var markStampCmd = &cobra.Command{
	Use:   "stamp [subject-id]",
	Short: "Place a text stamp",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarkStamp,
}

var markEraseCmd = &cobra.Command{
	Use:   "erase [subject-id]",
	Short: "Erase the first mark near a point",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarkErase,
}

var markListCmd = &cobra.Command{
	Use:   "list [subject-id]",
	Short: "List marks, optionally of one page",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarkList,
}

func init() {
	for _, c := range []*cobra.Command{markDrawCmd, markStampCmd, markEraseCmd} {
		c.Flags().IntVar(&markPage, "page", 1, "1-based page number")
		c.Flags().Float64Var(&markZoom, "zoom", 0, "viewport zoom (default from settings)")
		c.Flags().StringVar(&markOrigin, "origin", "0,0", "viewport origin as x,y")
	}
	markDrawCmd.Flags().StringVar(&markPoints, "points", "", `path points as "x,y x,y ..."`)
	markStampCmd.Flags().StringVar(&markAt, "at", "", "stamp position as x,y")
	markStampCmd.Flags().StringVar(&markText, "text", "", "stamp text")
	markEraseCmd.Flags().StringVar(&markAt, "at", "", "erase position as x,y")
	markListCmd.Flags().IntVar(&markListPage, "page", 0, "only list marks of this page")
	markListCmd.Flags().BoolVar(&markJSON, "json", false, "output as JSON")

	markCmd.AddCommand(markDrawCmd)
	markCmd.AddCommand(markStampCmd)
	markCmd.AddCommand(markEraseCmd)
	markCmd.AddCommand(markListCmd)
	rootCmd.AddCommand(markCmd)
}

// openDocument opens a document session positioned on --page with the
// requested viewport.
func openDocument(cmd *cobra.Command, id string, tool domain.Tool) (driving.DocumentSession, error) {
	review, err := requireReview()
	if err != nil {
		return nil, err
	}
	session, err := review.OpenDocument(cmd.Context(), id, driving.SessionOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	annotator := session.Annotator()

	if err := annotator.SetPage(markPage); err != nil {
		return nil, err
	}
	origin, err := parsePoint(markOrigin)
	if err != nil {
		return nil, fmt.Errorf("--origin: %w", err)
	}
	zoom := annotator.Viewport().Zoom
	if markZoom > 0 {
		zoom = markZoom
	}
	annotator.SetViewport(origin, zoom)

	if err := annotator.SelectTool(tool); err != nil {
		return nil, err
	}
	return session, nil
}

func runMarkDraw(cmd *cobra.Command, args []string) error {
	points, err := parsePoints(markPoints)
	if err != nil {
		return fmt.Errorf("--points: %w", err)
	}
	if len(points) < 2 {
		return fmt.Errorf("%w: a path needs at least two points", domain.ErrInvalidInput)
	}

	session, err := openDocument(cmd, args[0], domain.ToolPen)
	if err != nil {
		return err
	}
	annotator := session.Annotator()

	if out := annotator.HandlePointer(domain.PointerEvent{Type: domain.PointerDown, At: points[0]}); out.Ignored {
		return fmt.Errorf("page %d: %w", markPage, domain.ErrPageNotReady)
	}
	for _, p := range points[1:] {
		annotator.HandlePointer(domain.PointerEvent{Type: domain.PointerMove, At: p})
	}
	out := annotator.HandlePointer(domain.PointerEvent{Type: domain.PointerUp, At: points[len(points)-1]})
	if out.Created == nil {
		return fmt.Errorf("%w: the path has zero length", domain.ErrInvalidInput)
	}
	if err := session.Err(); err != nil {
		return fmt.Errorf("failed to save mark: %w", err)
	}

	cmd.Printf("Drew path %s on page %d (%d points)\n", out.Created.ID, out.Created.Page, len(out.Created.Points))
	return nil
}

func runMarkStamp(cmd *cobra.Command, args []string) error {
	at, err := parsePoint(markAt)
	if err != nil {
		return fmt.Errorf("--at: %w", err)
	}
	if strings.TrimSpace(markText) == "" {
		return fmt.Errorf("%w: --text is required", domain.ErrInvalidInput)
	}

	session, err := openDocument(cmd, args[0], domain.ToolStamp)
	if err != nil {
		return err
	}
	annotator := session.Annotator()

	out := annotator.HandlePointer(domain.PointerEvent{Type: domain.PointerDown, At: at})
	if out.Ignored || out.Stamp == nil {
		return fmt.Errorf("page %d: %w", markPage, domain.ErrPageNotReady)
	}
	m, ok := annotator.CommitStamp(*out.Stamp, markText)
	if !ok {
		return fmt.Errorf("%w: stamp was discarded", domain.ErrInvalidInput)
	}
	if err := session.Err(); err != nil {
		return fmt.Errorf("failed to save mark: %w", err)
	}

	cmd.Printf("Placed stamp %s on page %d at (%.1f, %.1f)\n", m.ID, m.Page, m.X, m.Y)
	return nil
}

func runMarkErase(cmd *cobra.Command, args []string) error {
	at, err := parsePoint(markAt)
	if err != nil {
		return fmt.Errorf("--at: %w", err)
	}

	session, err := openDocument(cmd, args[0], domain.ToolErase)
	if err != nil {
		return err
	}

	out := session.Annotator().HandlePointer(domain.PointerEvent{Type: domain.PointerDown, At: at})
	if out.Erased == "" {
		cmd.Printf("No mark near (%s) on page %d\n", markAt, markPage)
		return nil
	}
	if err := session.Err(); err != nil {
		return fmt.Errorf("failed to save marks: %w", err)
	}

	cmd.Printf("Erased mark %s\n", out.Erased)
	return nil
}

func runMarkList(cmd *cobra.Command, args []string) error {
	review, err := requireReview()
	if err != nil {
		return err
	}
	session, err := review.OpenDocument(cmd.Context(), args[0], driving.SessionOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	annotator := session.Annotator()

	marks := annotator.Marks()
	if markListPage > 0 {
		marks = annotator.MarksOnPage(markListPage)
	}

	if markJSON {
		return printJSON(cmd, marks)
	}
	if len(marks) == 0 {
		cmd.Println("No marks.")
		return nil
	}

	for i := range marks {
		m := &marks[i]
		switch m.Kind {
		case domain.MarkStamp:
			cmd.Printf("  %s  page %d  stamp at (%.1f, %.1f)  %q\n", m.ID, m.Page, m.X, m.Y, m.Content)
		default:
			cmd.Printf("  %s  page %d  path with %d points  %s\n", m.ID, m.Page, len(m.Points), m.Color)
		}
	}
	return nil
}

// parsePoint parses "x,y".
func parsePoint(s string) (domain.Point, error) {
	xs, ys, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return domain.Point{}, fmt.Errorf("%w: point %q, want x,y", domain.ErrInvalidInput, s)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err := errors.Join(errX, errY); err != nil {
		return domain.Point{}, fmt.Errorf("%w: point %q: %v", domain.ErrInvalidInput, s, err)
	}
	return domain.Point{X: x, Y: y}, nil
}

// parsePoints parses whitespace separated "x,y" pairs.
func parsePoints(s string) ([]domain.Point, error) {
	fields := strings.Fields(s)
	points := make([]domain.Point, 0, len(fields))
	for _, f := range fields {
		p, err := parsePoint(f)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}
