package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/facultyreview/internal/client/client"
)

var errUsage = errors.New("usage")

// parseFilter understands "-d <department>" and treats the rest as a name.
func parseFilter(args []string) (client.Filter, error) {
	var f client.Filter
	var name []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-d":
			if i+1 >= len(args) {
				return f, fmt.Errorf("%w: -d needs a department", errUsage)
			}
			f.Department = args[i+1]
			i++
		case "-id":
			if i+1 >= len(args) {
				return f, fmt.Errorf("%w: -id needs a value", errUsage)
			}
			f.ID = args[i+1]
			i++
		default:
			name = append(name, args[i])
		}
	}
	f.Name = strings.Join(name, " ")
	return f, nil
}

func (a *App) Faculty(ctx context.Context, args []string) error {
	filter, err := parseFilter(args)
	if err != nil {
		a.printf("Usage: faculty [-d department] [-id id] [name]\n")
		return err
	}

	list, err := a.api.Faculties(ctx, filter)
	if err != nil {
		return a.report(err)
	}

	switch len(list) {
	case 0:
		a.printf("No faculty found.\n")
	case 1:
		a.printFaculty(list[0])
	default:
		a.printList(list)
	}
	return nil
}

func (a *App) Top(ctx context.Context) error {
	list, err := a.api.TopThree(ctx)
	if err != nil {
		return a.report(err)
	}
	if len(list) == 0 {
		a.printf("No faculty found.\n")
		return nil
	}
	a.printList(list)
	return nil
}

func (a *App) printList(list []client.Faculty) {
	for i, f := range list {
		a.printf("%d. %s (%s) rating %s, %d reviews [%s]\n",
			i+1, f.Name, f.Department, f.Rating, f.TotalReviews, f.ID)
	}
}

func (a *App) printFaculty(f client.Faculty) {
	a.printf("%s\n", f.Name)
	if f.Designation != "" {
		a.printf("  %s, %s\n", f.Designation, f.Department)
	} else {
		a.printf("  %s\n", f.Department)
	}
	a.printf("  id: %s\n", f.ID)
	a.printf("  rating %s from %d reviews\n", f.Rating, f.TotalReviews)
	for star := 5; star >= 1; star-- {
		n := f.RatingDistribution[strconv.Itoa(star)]
		a.printf("  %d %s %d\n", star, strings.Repeat("*", n), n)
	}
	for _, r := range f.Reviews {
		a.printf("  - [%s] %s, %d/5, %s\n", r.ID, r.User, r.Rating, r.Date.Format("2006-01-02"))
		if r.Comment != "" {
			a.printf("    %s\n", strings.ReplaceAll(r.Comment, "\n", "\n    "))
		}
	}
}

// Review handles "review add <facultyID>", "review edit <facultyID>" and
// "review delete <facultyID> <reviewID>".
func (a *App) Review(ctx context.Context, args []string) error {
	const usage = "Usage: review add|edit <facultyID> | review delete <facultyID> <reviewID>\n"

	if len(args) < 2 {
		a.printf(usage)
		return errUsage
	}

	switch args[0] {
	case "add", "edit":
		in, err := a.readReview()
		if err != nil {
			return a.report(err)
		}
		if args[0] == "add" {
			_, err = a.api.AddReview(ctx, args[1], in)
		} else {
			_, err = a.api.UpdateReview(ctx, args[1], in)
		}
		if err != nil {
			return a.report(err)
		}
		if args[0] == "add" {
			a.printf("Review submitted successfully\n")
		} else {
			a.printf("Review updated successfully\n")
		}
		return nil

	case "delete", "rm":
		if len(args) < 3 {
			a.printf(usage)
			return errUsage
		}
		if err := a.api.DeleteReview(ctx, args[1], args[2]); err != nil {
			return a.report(err)
		}
		a.printf("Review deleted successfully\n")
		return nil

	default:
		a.printf(usage)
		return errUsage
	}
}

func (a *App) readReview() (client.ReviewInput, error) {
	var in client.ReviewInput

	raw, err := GetSimpleText(a.reader, "-Rating (1-5)", a.out)
	if err != nil {
		return in, err
	}
	rating, err := strconv.Atoi(raw)
	if err != nil || rating < 1 || rating > 5 {
		return in, errors.New("rating must be a number between 1 and 5")
	}
	in.Rating = rating

	if in.Comment, err = GetMultiline(a.reader, "-Comment", a.out); err != nil {
		return in, err
	}

	prompt := "-Display name"
	if a.userName != "" {
		prompt += fmt.Sprintf(" (empty for %q)", a.userName)
	}
	if in.User, err = GetSimpleText(a.reader, prompt, a.out); err != nil {
		return in, err
	}
	if in.User == "" {
		in.User = a.userName
	}

	in.UserImage = a.lastImage
	return in, nil
}
