// Package cli provides tutorial sequence commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/tutorial/internal/db"
	"github.com/opencode-ai/tutorial/internal/events"
	"github.com/opencode-ai/tutorial/internal/logging"
	"github.com/opencode-ai/tutorial/internal/models"
	"github.com/opencode-ai/tutorial/internal/sequences"
	"github.com/opencode-ai/tutorial/internal/tui/components"
	"github.com/opencode-ai/tutorial/internal/tui/styles"
	"github.com/opencode-ai/tutorial/internal/tutorial"
)

var listTags []string

const showHistoryLimit = 10

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(nextCmd)

	listCmd.Flags().StringSliceVar(&listTags, "tag", nil, "only list sequences with this tag (repeatable)")
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List available tutorials",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defs, err := loadDefinitions()
		if err != nil {
			return err
		}
		defs = filterDefinitions(defs, listTags)

		completions, err := loadCompletions(cmd.Context())
		if err != nil {
			return err
		}

		summaries := make([]sequenceSummary, 0, len(defs))
		for _, def := range defs {
			summaries = append(summaries, summarize(def, completions[def.ID]))
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, summaries)
		}

		if len(summaries) == 0 {
			fmt.Println(components.EmptySequences().Render(styles.DefaultStyles()))
			return nil
		}

		userDir, projectDir := sourceDirs()
		rows := make([][]string, 0, len(defs))
		for _, def := range defs {
			rows = append(rows, []string{
				def.ID,
				def.DisplayName(),
				strconv.Itoa(def.Priority),
				strconv.Itoa(len(def.Steps)),
				formatCompletion(completions[def.ID]),
				definitionSourceLabel(def.Source, userDir, projectDir),
			})
		}
		return writeTable(os.Stdout, []string{"ID", "NAME", "PRIORITY", "STEPS", "STATUS", "SOURCE"}, rows)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a tutorial's steps",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := findDefinition(args[0])
		if err != nil {
			return err
		}

		completions, err := loadCompletions(cmd.Context())
		if err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, sequenceDetail{
				sequenceSummary: summarize(def, completions[def.ID]),
				Description:     def.Description,
				Variables:       def.Variables,
				Steps:           def.Steps,
			})
		}

		userDir, projectDir := sourceDirs()
		fmt.Printf("%s (%s)\n", def.DisplayName(), def.ID)
		if def.Description != "" {
			fmt.Println(def.Description)
		}
		fmt.Printf("Source:     %s\n", definitionSourceLabel(def.Source, userDir, projectDir))
		fmt.Printf("Priority:   %d\n", def.Priority)
		fmt.Printf("Skippable:  %s\n", formatYesNo(def.Skippable()))
		fmt.Printf("Status:     %s\n", formatCompletion(completions[def.ID]))
		if len(def.Tags) > 0 {
			fmt.Printf("Tags:       %s\n", strings.Join(def.Tags, ", "))
		}
		for _, v := range def.Variables {
			fmt.Printf("Variable:   %s\n", formatVariable(v))
		}

		fmt.Println()
		fmt.Println("Steps:")
		for i, step := range def.Steps {
			fmt.Printf("  %d. %s\n", i+1, formatStepDefinition(step))
		}

		history, total, err := loadHistory(cmd.Context(), def.ID, showHistoryLimit)
		if err != nil {
			return err
		}
		if len(history) > 0 {
			fmt.Println()
			fmt.Println("History:")
			for _, e := range history {
				fmt.Printf("  %s  %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), formatEventType(e.Type))
			}
			if more := total - len(history); more > 0 {
				fmt.Printf("  ... %d more: tutorial events --sequence %s\n", more, def.ID)
			}
		}
		return nil
	},
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the tutorial that should run next",
	Long:  "Print the highest-priority tutorial that has not been completed.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		ctrl := tutorial.NewController(nil, nil)
		defer ctrl.Close()

		if err := registerDefinitions(ctx, ctrl, db.NewCompletionRepository(database)); err != nil {
			return err
		}

		eligible := ctrl.Eligible()
		if IsJSONOutput() || IsJSONLOutput() {
			next := map[string]any{"sequence_id": nil}
			if len(eligible) > 0 {
				next["sequence_id"] = eligible[0].ID()
				next["name"] = eligible[0].Name()
			}
			return WriteOutput(os.Stdout, next)
		}

		if len(eligible) == 0 {
			fmt.Println(components.AllCompleted().RenderCompact(styles.DefaultStyles()))
			return nil
		}
		fmt.Printf("%s\t%s\n", eligible[0].ID(), eligible[0].Name())
		return nil
	},
}

type sequenceSummary struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Priority   int                `json:"priority"`
	Steps      int                `json:"steps"`
	Tags       []string           `json:"tags,omitempty"`
	Source     string             `json:"source"`
	Completed  bool               `json:"completed"`
	Completion *models.Completion `json:"completion,omitempty"`
	CanSkipAll bool               `json:"can_skip_all"`
}

type sequenceDetail struct {
	sequenceSummary
	Description string                     `json:"description,omitempty"`
	Variables   []sequences.Variable       `json:"variables,omitempty"`
	Steps       []sequences.StepDefinition `json:"step_definitions"`
}

func summarize(def *sequences.Definition, completion *models.Completion) sequenceSummary {
	return sequenceSummary{
		ID:         def.ID,
		Name:       def.DisplayName(),
		Priority:   def.Priority,
		Steps:      len(def.Steps),
		Tags:       def.Tags,
		Source:     def.Source,
		Completed:  completion != nil,
		Completion: completion,
		CanSkipAll: def.Skippable(),
	}
}

func projectDir() string {
	if dir := strings.TrimSpace(currentConfig().Tutorial.ProjectDir); dir != "" {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

func loadDefinitions() ([]*sequences.Definition, error) {
	defs, err := sequences.LoadDefinitionsFromSearchPaths(projectDir(), currentConfig().Tutorial.SequencesDir)
	if err != nil {
		return nil, &PreflightError{
			Message:  fmt.Sprintf("failed to load tutorials: %v", err),
			Hint:     "Fix or remove the invalid sequence file",
			NextStep: "tutorial list",
			Err:      err,
		}
	}
	return defs, nil
}

func findDefinition(id string) (*sequences.Definition, error) {
	defs, err := loadDefinitions()
	if err != nil {
		return nil, err
	}
	def := findDefinitionByID(defs, id)
	if def == nil {
		return nil, &PreflightError{
			Message:  fmt.Sprintf("tutorial %q not found", id),
			Hint:     "List the available tutorials",
			NextStep: "tutorial list",
			Err:      tutorial.ErrSequenceNotFound,
		}
	}
	return def, nil
}

// loadCompletions returns stored completions keyed by sequence id.
func loadCompletions(ctx context.Context) (map[string]*models.Completion, error) {
	database, err := openDatabase()
	if err != nil {
		return nil, err
	}
	defer database.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	list, err := db.NewCompletionRepository(database).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}
	byID := make(map[string]*models.Completion, len(list))
	for _, c := range list {
		byID[c.SequenceID] = c
	}
	return byID, nil
}

// loadHistory returns the oldest limit events logged for a sequence and the
// total number logged.
func loadHistory(ctx context.Context, sequenceID string, limit int) ([]*models.Event, int, error) {
	database, err := openDatabase()
	if err != nil {
		return nil, 0, err
	}
	defer database.Close()

	repo := db.NewEventRepository(database)
	list, err := repo.ListByEntity(ctx, models.EntityTypeSequence, sequenceID, limit)
	if err != nil {
		return nil, 0, err
	}
	entityType := models.EntityTypeSequence
	total, err := repo.Count(ctx, db.EventQuery{EntityType: &entityType, EntityID: &sequenceID})
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// registerDefinitions restores completions into ctrl and registers every
// definition that builds with default variables.
func registerDefinitions(ctx context.Context, ctrl *tutorial.Controller, store *db.CompletionRepository) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := events.Restore(ctx, store, ctrl); err != nil {
		return err
	}

	defs, err := loadDefinitions()
	if err != nil {
		return err
	}

	logger := logging.Component("cli")
	for _, def := range defs {
		seq, err := sequences.Build(def, nil)
		if err != nil {
			logger.Debug().Err(err).Str("sequence_id", def.ID).Msg("skipping sequence that needs variables")
			continue
		}
		ctrl.RegisterSequence(seq)
	}
	return nil
}

func filterDefinitions(defs []*sequences.Definition, tags []string) []*sequences.Definition {
	if len(tags) == 0 {
		return defs
	}
	filtered := make([]*sequences.Definition, 0, len(defs))
	for _, def := range defs {
		for _, tag := range tags {
			if def.HasTag(tag) {
				filtered = append(filtered, def)
				break
			}
		}
	}
	return filtered
}

func findDefinitionByID(defs []*sequences.Definition, id string) *sequences.Definition {
	id = strings.TrimSpace(id)
	for _, def := range defs {
		if strings.EqualFold(def.ID, id) {
			return def
		}
	}
	return nil
}

// parseSequenceVars parses key=value pairs; each entry may hold several
// comma-separated pairs.
func parseSequenceVars(values []string) (map[string]string, error) {
	vars := make(map[string]string)
	for _, value := range values {
		for _, pair := range strings.Split(value, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			key, val, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, fmt.Errorf("invalid variable %q (expected key=value)", pair)
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return nil, fmt.Errorf("invalid variable %q (empty key)", pair)
			}
			vars[key] = val
		}
	}
	return vars, nil
}

// normalizeSequenceID validates an id given on the command line.
func normalizeSequenceID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("sequence id is required")
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid sequence id %q", id)
	}
	return id, nil
}

func sourceDirs() (userDir, project string) {
	paths := sequences.SearchPaths(projectDir())
	for _, p := range paths {
		switch {
		case strings.HasSuffix(p, filepath.Join(".tutorial", "sequences")):
			project = p
		case strings.HasSuffix(p, filepath.Join(".config", "tutorial", "sequences")):
			userDir = p
		}
	}
	return userDir, project
}

func definitionSourceLabel(source, userDir, projectDir string) string {
	switch {
	case source == "builtin":
		return "builtin"
	case projectDir != "" && isWithin(source, projectDir):
		return "project"
	case userDir != "" && isWithin(source, userDir):
		return "user"
	default:
		return "file"
	}
}

func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func formatStepDefinition(step sequences.StepDefinition) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(formatStepDefinitionShort(step))
	b.WriteString("]")
	if step.Title != "" {
		b.WriteString(" ")
		b.WriteString(step.Title)
		if step.Message != "" {
			b.WriteString(":")
		}
	}
	if step.Message != "" {
		b.WriteString(" ")
		b.WriteString(step.Message)
	}

	var opts []string
	if step.CanSkip != nil && !*step.CanSkip {
		opts = append(opts, "no skip")
	}
	if step.Wait != nil && !*step.Wait {
		opts = append(opts, "no wait")
	}
	if step.DelayBefore != "" {
		opts = append(opts, "before "+step.DelayBefore)
	}
	if step.DelayAfter != "" {
		opts = append(opts, "after "+step.DelayAfter)
	}
	if len(opts) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(opts, ", "))
		b.WriteString(")")
	}
	return b.String()
}

func formatStepDefinitionShort(step sequences.StepDefinition) string {
	switch step.Type {
	case sequences.StepTypeHighlight:
		if step.RequireTarget != nil && !*step.RequireTarget {
			return "highlight:" + step.Target + ":tap"
		}
		return "highlight:" + step.Target
	case sequences.StepTypePointer:
		if step.Position != nil {
			return "pointer:" + step.Position.String()
		}
		return "pointer"
	default:
		return string(step.Type)
	}
}

func formatVariable(v sequences.Variable) string {
	parts := []string{v.Name}
	if v.Required {
		parts = append(parts, "required")
	}
	if v.Default != "" {
		parts = append(parts, fmt.Sprintf("default %q", v.Default))
	}
	if v.Description != "" {
		parts = append(parts, "- "+v.Description)
	}
	return strings.Join(parts, " ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
