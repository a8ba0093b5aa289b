package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.temporal.io/sdk/client"

	"finrag/internal/chat"
	"finrag/internal/config"
	"finrag/internal/pipeline"
	"finrag/internal/tui"
)

const usage = `Usage:
  finrag [--config=config.yaml] ingest [--source-id=id] file.pdf [file2.png ...]
  finrag [--config=config.yaml] query [--top-k=5] [--files=a.pdf,b.pdf] "question"
  finrag [--config=config.yaml] chat`

func main() {
	_ = godotenv.Load()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		fmt.Println(usage)
		os.Exit(1)
	}

	var cfg *config.Config
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.Address,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Temporal client")
	}
	defer c.Close()

	runs := pipeline.NewClient(c, cfg.Temporal.TaskQueue,
		cfg.Query.TopK, time.Duration(cfg.Query.MaxWaitSecs)*time.Second)

	switch args[0] {
	case "ingest":
		runIngest(log, runs, args[1:])
	case "query":
		runQuery(log, runs, args[1:])
	case "chat":
		runChat(log, runs, cfg)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func runIngest(log zerolog.Logger, runs *pipeline.Client, args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	sourceID := fs.String("source-id", "", "Override the source id (defaults to the file name)")
	_ = fs.Parse(args)
	files := fs.Args()
	if len(files) == 0 {
		fmt.Println(usage)
		os.Exit(1)
	}
	if *sourceID != "" && len(files) > 1 {
		log.Fatal().Msg("--source-id only applies to a single file")
	}
	for _, path := range files {
		res, err := runs.IngestFile(context.Background(), pipeline.IngestInput{
			FilePath: path,
			SourceID: *sourceID,
		})
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("ingest failed")
		}
		fmt.Printf("%s: ingested %d chunks\n", path, res.Ingested)
	}
}

func runQuery(log zerolog.Logger, runs *pipeline.Client, args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	topK := fs.Int("top-k", 0, "Number of contexts to retrieve")
	files := fs.String("files", "", "Comma-separated source names to search within")
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		fmt.Println(usage)
		os.Exit(1)
	}
	question := strings.Join(fs.Args(), " ")

	var fileNames []string
	if *files != "" {
		fileNames = strings.Split(*files, ",")
	}
	res, err := runs.Query(context.Background(), pipeline.QueryInput{
		Question:  question,
		TopK:      *topK,
		FileNames: fileNames,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("query failed")
	}

	fmt.Println(res.Answer)
	if len(res.Sources) > 0 {
		fmt.Printf("\nSources: %s\n", strings.Join(res.Sources, ", "))
	}
	if len(res.ChartData) > 0 {
		fmt.Println("\nChart data:")
		for _, p := range res.ChartData {
			fmt.Printf("  %-20s %10.2f\n", p.Category, p.Amount)
		}
	}
}

func runChat(log zerolog.Logger, runs *pipeline.Client, cfg *config.Config) {
	history := chat.NewStore(cfg.Chat.HistoryPath)
	m := tui.New(runs, history)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal().Err(err).Msg("chat failed")
	}
}
