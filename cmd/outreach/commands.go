package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"outreach/internal/analytics"
	"outreach/internal/cmdlog"
	"outreach/internal/config"
	"outreach/internal/engage"
	"outreach/internal/jobs"
	"outreach/internal/metrics"
	"outreach/internal/model"
	"outreach/internal/store/sqlite"
	"outreach/internal/theme"
)

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Save(cfgPath, config.Default()); err != nil {
			return err
		}
		abs, _ := filepath.Abs(cfgPath)
		theme.PrintBanner()
		fmt.Println("Config written to:", abs)
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [listing-file|-]",
	Short: "Extract structured signals from a listing",
	Args:  cobra.ExactArgs(1),
	RunE: cmdlog.Wrap("analyze", func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		raw, err := readInput(args[0])
		if err != nil {
			return err
		}
		return printJSON(a.analyzer.Analyze(raw, listingID, listingURL))
	}),
}

var personalizeCmd = &cobra.Command{
	Use:   "personalize [listing-file|-]",
	Short: "Show anchors, price insight and the variant ranking for a listing",
	Args:  cobra.ExactArgs(1),
	RunE: cmdlog.Wrap("personalize", func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		raw, err := readInput(args[0])
		if err != nil {
			return err
		}
		s := a.analyzer.Analyze(raw, listingID, listingURL)
		res := a.personal.Personalize(s)
		fmt.Printf("depth: %s\n", a.personal.Depth(s))
		scores := a.personal.Scores(s)
		for i, v := range res.RecommendedVariants {
			fmt.Printf("%d. %s (%s) score=%.1f\n", i+1, v, v.Letter(), scores[v])
		}
		return printJSON(res)
	}),
}

var (
	listingID  string
	listingURL string
	sellerID   string
	variantArg string
	allFlag    bool
	stageArg   string
)

func parseVariant() (*model.MessageVariant, error) {
	if variantArg == "" {
		return nil, nil
	}
	v, err := model.ParseVariant(variantArg)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

var generateCmd = &cobra.Command{
	Use:   "generate [listing-file|-]",
	Short: "Draft an initial message without sending it",
	Args:  cobra.ExactArgs(1),
	RunE: cmdlog.Wrap("generate", func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		raw, err := readInput(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if allFlag {
			msgs, err := a.generator.GenerateAllVariants(ctx, raw, listingID, listingURL)
			if err != nil {
				return err
			}
			for _, v := range model.AllVariants() {
				if m, ok := msgs[v]; ok {
					fmt.Printf("[%s] attempt=%d\n%s\n---\n", v, m.GenerationAttempt, m.Text)
				}
			}
			return nil
		}
		v, err := parseVariant()
		if err != nil {
			return err
		}
		m, err := a.generator.Generate(ctx, raw, listingID, listingURL, v)
		if err != nil {
			return err
		}
		fmt.Printf("[%s] attempt=%d\n%s\n", m.Variant, m.GenerationAttempt, m.Text)
		return nil
	}),
}

var followupCmd = &cobra.Command{
	Use:   "followup [listing-file|-]",
	Short: "Draft a follow-up message for a stage without sending it",
	Args:  cobra.ExactArgs(1),
	RunE: cmdlog.Wrap("followup", func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		stage, err := model.ParseStage(stageArg)
		if err != nil {
			return err
		}
		raw, err := readInput(args[0])
		if err != nil {
			return err
		}
		m, err := a.generator.GenerateFollowUp(cmd.Context(), raw, stage, listingID, listingURL)
		if err != nil {
			return err
		}
		fmt.Printf("[%s] attempt=%d\n%s\n", m.Stage, m.GenerationAttempt, m.Text)
		return nil
	}),
}

var classifyCmd = &cobra.Command{
	Use:   "classify [reply text]",
	Short: "Classify a seller reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: cmdlog.Wrap("classify", func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		s := a.tracker.ClassifyReply(cmd.Context(), strings.Join(args, " "))
		fmt.Printf("%s (continue outreach: %t)\n", s, !s.IsNegative())
		return nil
	}),
}

var contactCmd = &cobra.Command{
	Use:   "contact [listing-file|-]",
	Short: "Gate, generate and send the first message for a listing",
	Args:  cobra.ExactArgs(1),
	RunE: cmdlog.Wrap("contact", func(cmd *cobra.Command, args []string) error {
		if listingID == "" {
			return errors.New("--id is required")
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		raw, err := readInput(args[0])
		if err != nil {
			return err
		}
		v, err := parseVariant()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		d, closeDB, err := a.deps(ctx)
		if err != nil {
			return err
		}
		defer closeDB()
		l := sqlite.Listing{ID: listingID, URL: listingURL, SellerID: sellerID, RawText: raw}
		m, err := jobs.StartOutreach(ctx, d, l, v, time.Now())
		if err != nil {
			return err
		}
		st, _ := d.Engine.Get(listingID)
		fmt.Printf("[%s] sent\n%s\n", m.Variant, m.Text)
		if st.NextFollowUpAt != nil {
			fmt.Println("next follow-up:", st.NextFollowUpAt.Format(time.RFC3339))
		}
		return nil
	}, jobs.ErrSellerContacted, jobs.ErrBudgetExhausted, jobs.ErrQuietHours),
}

var replyCmd = &cobra.Command{
	Use:   "reply [listing-id] [reply text]",
	Short: "Record a seller reply",
	Args:  cobra.MinimumNArgs(2),
	RunE: cmdlog.Wrap("reply", func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		d, closeDB, err := a.deps(ctx)
		if err != nil {
			return err
		}
		defer closeDB()
		s, err := jobs.HandleReply(ctx, d, args[0], strings.Join(args[1:], " "), time.Now())
		if err != nil {
			return err
		}
		fmt.Println(s)
		return nil
	}),
}

var removeCmd = &cobra.Command{
	Use:   "remove [listing-id]",
	Short: "Mark a listing as offline and stop its follow-ups",
	Args:  cobra.ExactArgs(1),
	RunE: cmdlog.Wrap("remove", func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		d, closeDB, err := a.deps(ctx)
		if err != nil {
			return err
		}
		defer closeDB()
		return jobs.RemoveListing(ctx, d, args[0], time.Now())
	}),
}

var (
	onceFlag     bool
	intervalFlag time.Duration
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Send due follow-ups, once or on a ticker until interrupted",
	RunE: cmdlog.Wrap("dispatch", func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		d, closeDB, err := a.deps(ctx)
		if err != nil {
			return err
		}
		defer closeDB()
		d.Pacer = engage.NewPacer(a.cfg.Sending, rand.New(rand.NewSource(time.Now().UnixNano())))

		if onceFlag {
			n, err := jobs.RunFollowUpsOnce(ctx, d, time.Now())
			fmt.Printf("sent %d follow-ups\n", n)
			return err
		}
		metrics.StartServer(a.cfg.Metrics.Addr)
		interval := intervalFlag
		if interval <= 0 {
			interval = time.Duration(max(a.cfg.FollowUp.TickSec, 1)) * time.Second
		}
		theme.PrintBanner()
		err = jobs.RunFollowUpLoop(ctx, d, interval, nil)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}),
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List follow-ups that are due now and the next allowed send time",
	RunE: cmdlog.Wrap("pending", func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		d, closeDB, err := a.deps(ctx)
		if err != nil {
			return err
		}
		defer closeDB()
		now := time.Now().In(a.cfg.Location())
		for _, p := range jobs.Pending(d, now) {
			fmt.Printf("%s -> %s\n", p.ListingID, p.Stage)
		}
		fmt.Println("next send window:", engage.NextAllowed(now, a.cfg.Sending).Format(time.RFC3339))
		return nil
	}),
}

var statsDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show conversation stats, reply rates and send activity",
	RunE: cmdlog.Wrap("stats", func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		d, closeDB, err := a.deps(ctx)
		if err != nil {
			return err
		}
		defer closeDB()
		if err := printJSON(d.Engine.Stats()); err != nil {
			return err
		}

		convs := d.Engine.Conversations()
		rates := analytics.ReplyRateByVariant(convs)
		variants := make([]model.MessageVariant, 0, len(rates))
		for v := range rates {
			variants = append(variants, v)
		}
		sort.Slice(variants, func(i, j int) bool { return variants[i] < variants[j] })
		fmt.Println("reply rate by variant:")
		for _, v := range variants {
			fmt.Printf("  %-17s %.0f%%\n", v, rates[v]*100)
		}

		loc := a.cfg.Location()
		fmt.Println("messages sent by hour of day:")
		for h, n := range analytics.SentPerHour(convs, loc) {
			if n > 0 {
				fmt.Printf("  %02d:00 %d\n", h, n)
			}
		}

		now := time.Now()
		events, err := d.DB.LoadEventsRange(ctx, now.AddDate(0, 0, -statsDays), now.Add(time.Second), "")
		if err != nil {
			return err
		}
		b := analytics.HourlyActivity(events, loc)
		fmt.Printf("activity, last %d days:\n", statsDays)
		for _, k := range analytics.SortedBucketKeys(b) {
			fmt.Printf("  %s -> %v\n", k.Format("2006-01-02 15:00"), b[k])
		}
		return nil
	}),
}

func init() {
	for _, c := range []*cobra.Command{analyzeCmd, personalizeCmd, generateCmd, followupCmd, contactCmd} {
		c.Flags().StringVar(&listingID, "id", "", "listing id")
		c.Flags().StringVar(&listingURL, "url", "", "listing url")
	}
	generateCmd.Flags().StringVar(&variantArg, "variant", "", "variant name or letter (default: best ranked)")
	generateCmd.Flags().BoolVar(&allFlag, "all", false, "try every variant")
	contactCmd.Flags().StringVar(&variantArg, "variant", "", "variant name or letter (default: best ranked)")
	contactCmd.Flags().StringVar(&sellerID, "seller", "", "seller id for de-duplication")
	followupCmd.Flags().StringVar(&stageArg, "stage", "FollowUp1", "FollowUp1 or FollowUp2")
	dispatchCmd.Flags().BoolVar(&onceFlag, "once", false, "run a single dispatch and exit")
	dispatchCmd.Flags().DurationVar(&intervalFlag, "interval", 0, "tick interval (default: followup.tickSec)")
	statsCmd.Flags().IntVar(&statsDays, "days", 7, "event window in days")
}
