package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"healthhelper/internal/app"
	"healthhelper/internal/render"
	"healthhelper/internal/validation"
	"io"
	"strings"
)

// question is one prompt of the questionnaire.
type question struct {
	label   string
	choices []string
	get     func(*validation.FormInput) *string
}

var questions = []question{
	{"Age*", nil, func(f *validation.FormInput) *string { return &f.Age }},
	{"Gender (for specific health recommendations)", []string{"female", "male", "other"}, func(f *validation.FormInput) *string { return &f.Gender }},
	{"Do you smoke or have you smoked in the past 15 years?", []string{"yes", "no"}, func(f *validation.FormInput) *string { return &f.SmokingStatus }},
	{"How would you describe your alcohol consumption?", []string{"none", "light", "moderate", "heavy"}, func(f *validation.FormInput) *string { return &f.AlcoholConsumption }},
	{"How much physical activity do you get per week?", []string{"sedentary", "light", "moderate", "active"}, func(f *validation.FormInput) *string { return &f.PhysicalActivity }},
}

// Interactive runs the questionnaire on in and out until the user quits,
// input ends or ctx is cancelled. Previous answers are offered as defaults
// after going back; "-" clears one.
func Interactive(ctx context.Context, a *app.App, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	// readLine returns ok=false with a nil error at end of input.
	readLine := func() (string, bool, error) {
		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return "", false, scanner.Err()
			}
			return strings.TrimSpace(line), true, nil
		}
	}

	fmt.Fprintf(out, "%s\n%s\n\n", render.Title, render.Subtitle)
	fmt.Fprintln(out, "Enter your information to get personalized health screening recommendations based on your age, gender, and lifestyle factors.")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if a.State() == app.StateForm {
			form := a.Form()
			fmt.Fprintln(out)
			for _, q := range questions {
				field := q.get(&form)
				fmt.Fprint(out, q.label)
				if len(q.choices) > 0 {
					fmt.Fprintf(out, " [%s]", strings.Join(q.choices, "/"))
				}
				if *field != "" {
					fmt.Fprintf(out, " (%s)", *field)
				}
				fmt.Fprint(out, ": ")

				line, ok, err := readLine()
				if !ok {
					return err
				}
				switch line {
				case "":
				case "-":
					*field = ""
				default:
					*field = line
				}
			}

			_, err := a.Submit(form)
			var verr *validation.Error
			if errors.As(err, &verr) {
				fmt.Fprintf(out, "\nPlease check your answers: %s\n", verr)
				continue
			}
			if err != nil {
				return err
			}
		}

		sel, ok := a.Results()
		if !ok {
			continue
		}
		fmt.Fprintln(out)
		if err := render.Text(out, sel); err != nil {
			return err
		}

		for a.State() == app.StateResults {
			fmt.Fprint(out, "\nType 'back' to return to the form or 'quit' to exit: ")
			line, ok, err := readLine()
			if !ok {
				return err
			}
			switch strings.ToLower(line) {
			case "back", "b":
				a.Back()
			case "quit", "q", "exit":
				return nil
			}
		}
	}
}
