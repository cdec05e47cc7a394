// Package cli implements the operator subcommands of the medimatch binary.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/terraincognita07/medimatch/internal/knowledge"
	"github.com/terraincognita07/medimatch/internal/models"
	"github.com/terraincognita07/medimatch/internal/security"
	"github.com/terraincognita07/medimatch/internal/services"
)

// RunCheckKnowledge validates the knowledge file at path and prints a summary.
func RunCheckKnowledge(path string, out io.Writer) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("usage: medimatch check-knowledge <path>")
	}

	base, err := knowledge.LoadFile(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "knowledge base OK: %d conditions, %d vocabulary tokens (version %s)\n",
		base.Len(), len(base.Vocabulary()), base.Version())
	return nil
}

// PredictEnvironment carries what an offline prediction needs.
type PredictEnvironment struct {
	Knowledge  services.KnowledgeSource
	Facilities *services.FacilityService
	Reports    *services.ReportService
	Language   string
}

// RunPredict evaluates the symptoms in args against the configured knowledge
// base and prints the plain-text report. Nothing is stored.
func RunPredict(ctx context.Context, args []string, env PredictEnvironment, out io.Writer) error {
	flags := flag.NewFlagSet("predict", flag.ContinueOnError)
	flags.SetOutput(out)
	city := flags.String("city", "", "city used to recommend facilities")
	name := flags.String("name", "", "patient name printed on the report")
	if err := flags.Parse(args); err != nil {
		return err
	}

	predictions, err := services.NewPredictionService(env.Knowledge, nil, env.Facilities, 0, nil)
	if err != nil {
		return err
	}
	evaluation, err := predictions.Evaluate(flags.Args())
	if err != nil {
		return err
	}

	report := models.Report{
		Reference:        "OFFLINE",
		Name:             strings.TrimSpace(*name),
		City:             strings.TrimSpace(*city),
		Symptoms:         evaluation.Input.Tokens,
		Unrecognized:     evaluation.Input.Unrecognized,
		KnowledgeVersion: evaluation.KnowledgeVersion,
		CreatedAt:        time.Now(),
	}
	if evaluation.Result.Matched {
		report.Matched = true
		report.Condition = evaluation.Result.Condition.Name
		report.Score = evaluation.Result.Score
		report.Explanation = evaluation.Result.Condition.Explanation
		report.Guidance = evaluation.Result.Condition.Guidance
	}

	fmt.Fprint(out, env.Reports.RenderText(report, env.Language))

	if report.Matched && env.Facilities != nil {
		facilities, err := env.Facilities.Recommend(ctx, report.City)
		if err != nil {
			return fmt.Errorf("recommend facilities: %w", err)
		}
		fmt.Fprintln(out)
		for _, facility := range facilities {
			fmt.Fprintf(out, "- %s (%s) %s\n", facility.Name, facility.Location, facility.Contact)
		}
	}
	return nil
}

// RunHashAdminToken reads an admin token from stdin and prints the bcrypt
// hash to put in admin.token_hash.
func RunHashAdminToken(stdin *os.File, out io.Writer) error {
	fmt.Fprint(out, "Admin token: ")
	token, err := readSecretNoEcho(stdin)
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("read admin token: %w", err)
	}

	hash, err := security.HashAdminToken(token)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, hash)
	return nil
}
