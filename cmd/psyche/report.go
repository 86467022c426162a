package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Psyche/internal/config"
	"github.com/MikeSquared-Agency/Psyche/internal/pipeline"
	"github.com/MikeSquared-Agency/Psyche/internal/render"
	"github.com/MikeSquared-Agency/Psyche/internal/report"
	"github.com/MikeSquared-Agency/Psyche/internal/scoring"
	"github.com/MikeSquared-Agency/Psyche/internal/store"
)

// bundle is a self-contained questionnaire run: catalog, one company, its raw
// submissions and optionally a template. Questions and categories are referred
// to by key so the file can be written by hand.
type bundle struct {
	Company     store.Company      `yaml:"company"`
	Scale       []store.ScaleItem  `yaml:"scale"`
	Categories  []bundleCategory   `yaml:"categories"`
	ActionPlans []bundlePlan       `yaml:"action_plans"`
	Template    *bundleTemplate    `yaml:"template"`
	Submissions []bundleSubmission `yaml:"submissions"`
}

type bundleCategory struct {
	Key         string           `yaml:"key"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Questions   []bundleQuestion `yaml:"questions"`
}

type bundleQuestion struct {
	Key      string         `yaml:"key"`
	Text     string         `yaml:"text"`
	Polarity store.Polarity `yaml:"polarity"`
}

type bundlePlan struct {
	Category    string   `yaml:"category"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	ScoreMin    *float64 `yaml:"score_min"`
	ScoreMax    *float64 `yaml:"score_max"`
	Hidden      bool     `yaml:"hidden"`
}

type bundleTemplate struct {
	Name     string             `yaml:"name"`
	Sections report.SectionList `yaml:"sections"`
}

type bundleSubmission struct {
	Demographics store.Demographics `yaml:"demographics"`
	SubmittedAt  *time.Time         `yaml:"submitted_at"`
	Answers      map[string]float64 `yaml:"answers"`
}

type reportFlags struct {
	bundle      string
	format      string
	out         string
	actionLabel string
	department  string
}

func newReportCmd(configPath *string) *cobra.Command {
	f := &reportFlags{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Score a bundle of submissions offline and print the composed report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return exitError(2, "failed to load config: %v", err)
			}
			if cmd.Flags().Changed("action-label") {
				cfg.Report.ActionLabel = f.actionLabel
			}
			return runReport(cmd.Context(), cfg, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.bundle, "bundle", "", "Bundle file (YAML)")
	flags.StringVar(&f.format, "format", "md", "Output format: json or md")
	flags.StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	flags.StringVar(&f.actionLabel, "action-label", "", "Label prefix for action plan items")
	flags.StringVar(&f.department, "department", "", "Only include submissions from this department")
	_ = cmd.MarkFlagRequired("bundle")

	return cmd
}

func runReport(ctx context.Context, cfg *config.Config, f *reportFlags) error {
	if f.format != "json" && f.format != "md" {
		return exitError(2, "unknown format %q (json or md)", f.format)
	}
	data, err := os.ReadFile(f.bundle)
	if err != nil {
		return exitError(3, "failed to read bundle: %v", err)
	}
	b, err := parseBundle(data)
	if err != nil {
		return exitError(3, "invalid bundle: %v", err)
	}

	logger := newLogger(config.LoggingConfig{Level: "warn", Format: "text"})
	svc, sc, err := b.load(ctx, cfg.Report, logger)
	if err != nil {
		return exitError(4, "%v", err)
	}
	sc.Department = f.department

	doc, err := svc.ComposeReport(ctx, sc, nil)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if f.out != "" {
		file, err := os.Create(f.out)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	return writeDocument(w, doc, f.format)
}

func writeDocument(w io.Writer, doc *report.Document, format string) error {
	if format == "md" {
		_, err := io.WriteString(w, render.Markdown(doc))
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func parseBundle(data []byte) (*bundle, error) {
	var b bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	if b.Company.Name == "" {
		return nil, fmt.Errorf("company.name is required")
	}
	if len(b.Scale) == 0 {
		return nil, fmt.Errorf("scale must list at least one item")
	}
	return &b, nil
}

// load seeds an in-memory store from the bundle and submits every response
// through the regular scoring path. Any rejected submission aborts the run.
func (b *bundle) load(ctx context.Context, rc config.ReportConfig, logger *slog.Logger) (*pipeline.Service, pipeline.Scope, error) {
	ms := store.NewMemoryStore()
	tenantID := b.Company.TenantID
	if tenantID == uuid.Nil {
		tenantID = uuid.New()
	}
	company := b.Company
	company.TenantID = tenantID
	company = ms.AddCompany(company)
	ms.SetScale(uuid.Nil, b.Scale)

	categories := make(map[string]uuid.UUID, len(b.Categories))
	questions := make(map[string]uuid.UUID)
	order := 0
	for i, bc := range b.Categories {
		if bc.Key == "" {
			return nil, pipeline.Scope{}, fmt.Errorf("categories[%d]: key is required", i)
		}
		if _, dup := categories[bc.Key]; dup {
			return nil, pipeline.Scope{}, fmt.Errorf("categories[%d]: duplicate key %q", i, bc.Key)
		}
		c := ms.AddCategory(nil, store.Category{Name: bc.Name, Description: bc.Description, Order: i + 1})
		categories[bc.Key] = c.ID

		for j, bq := range bc.Questions {
			if bq.Polarity != "" && !bq.Polarity.Valid() {
				return nil, pipeline.Scope{}, fmt.Errorf("categories[%d].questions[%d]: unknown polarity %q", i, j, bq.Polarity)
			}
			if _, dup := questions[bq.Key]; dup || bq.Key == "" {
				return nil, pipeline.Scope{}, fmt.Errorf("categories[%d].questions[%d]: missing or duplicate key %q", i, j, bq.Key)
			}
			order++
			catID := c.ID
			q := ms.AddQuestion(store.Question{CategoryID: &catID, Text: bq.Text, Polarity: bq.Polarity, Order: order})
			questions[bq.Key] = q.ID
		}
	}

	created := time.Now()
	for i, bp := range b.ActionPlans {
		catID, ok := categories[bp.Category]
		if !ok {
			return nil, pipeline.Scope{}, fmt.Errorf("action_plans[%d]: unknown category %q", i, bp.Category)
		}
		ms.AddActionPlan(store.ActionPlan{
			CategoryID:   catID,
			Title:        bp.Title,
			Description:  bp.Description,
			IsGlobal:     true,
			ScoreMin:     bp.ScoreMin,
			ScoreMax:     bp.ScoreMax,
			ShowInReport: !bp.Hidden,
			CreatedAt:    created.Add(time.Duration(i) * time.Millisecond),
		})
	}

	svc := pipeline.New(ms, nil, nil, nil, nil, rc, logger)

	if b.Template != nil {
		if _, err := svc.CreateTemplate(ctx, tenantID, b.Template.Name, b.Template.Sections); err != nil {
			return nil, pipeline.Scope{}, fmt.Errorf("template: %w", err)
		}
	}

	for i, sub := range b.Submissions {
		answers := make([]scoring.Answer, 0, len(sub.Answers))
		for key, v := range sub.Answers {
			id, ok := questions[key]
			if !ok {
				return nil, pipeline.Scope{}, fmt.Errorf("submissions[%d]: unknown question %q", i, key)
			}
			answers = append(answers, scoring.Answer{QuestionID: id, Value: v})
		}
		_, err := svc.Submit(ctx, pipeline.Submission{
			TenantID:     tenantID,
			CompanyID:    company.ID,
			Demographics: sub.Demographics,
			Answers:      answers,
			SubmittedAt:  sub.SubmittedAt,
		})
		if err != nil {
			return nil, pipeline.Scope{}, fmt.Errorf("submissions[%d]: %w", i, err)
		}
	}

	return svc, pipeline.Scope{TenantID: tenantID, CompanyID: company.ID}, nil
}
