package selection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// Prompt asks for a region on the terminal.
type Prompt struct {
	In  io.Reader
	Out io.Writer
	// Bounds is the display-local area the region must intersect.
	Bounds image.Rectangle

	// ask is replaced in tests.
	ask func(ctx context.Context, p *Prompt, value *string) error
}

// Select runs the prompt. Aborting the form cancels the selection.
func (p *Prompt) Select(ctx context.Context) (Result, error) {
	ask := p.ask
	if ask == nil {
		ask = askRegion
	}

	var value string
	if err := ask(ctx, p, &value); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return Result{Canceled: true}, nil
		}
		return Result{}, fmt.Errorf("region prompt failed: %w", err)
	}

	rect, err := p.validate(value)
	if err != nil {
		return Result{}, err
	}
	return FromDrag(rect.Min, rect.Max), nil
}

func (p *Prompt) validate(value string) (image.Rectangle, error) {
	rect, err := Parse(value)
	if err != nil {
		return image.Rectangle{}, err
	}
	if !largeEnough(rect) {
		return image.Rectangle{}, fmt.Errorf("region must be larger than %dx%d", MinSize, MinSize)
	}
	if !p.Bounds.Empty() && rect.Intersect(p.Bounds).Empty() {
		return image.Rectangle{}, fmt.Errorf("region lies outside the display (%dx%d)", p.Bounds.Dx(), p.Bounds.Dy())
	}
	return rect, nil
}

func askRegion(ctx context.Context, p *Prompt, value *string) error {
	in, out := p.In, p.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	description := "Display-local pixels as x,y,width,height"
	if !p.Bounds.Empty() {
		description = fmt.Sprintf("%s (display is %dx%d)", description, p.Bounds.Dx(), p.Bounds.Dy())
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Capture region").
				Description(description).
				Placeholder("0,0,800,600").
				Value(value).
				Validate(func(s string) error {
					_, err := p.validate(s)
					return err
				}),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	return form.RunWithContext(ctx)
}
