package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"recruit-console/internal/cache"
	"recruit-console/internal/config"
	"recruit-console/internal/model"
)

func runVoice(ctx context.Context, cfg config.Config, args []string) error {
	if len(args) == 0 {
		printVoiceUsage()
		return nil
	}
	switch args[0] {
	case "global":
		return runVoiceGlobal(ctx, cfg, args[1:])
	case "job":
		return runVoiceJob(ctx, cfg, args[1:])
	case "voices":
		return runVoiceVoices(ctx, cfg, args[1:])
	case "models":
		return runVoiceModels(ctx, cfg, args[1:])
	case "help", "-h", "--help":
		printVoiceUsage()
		return nil
	default:
		printVoiceUsage()
		return fmt.Errorf("unknown voice subcommand %q", args[0])
	}
}

func runVoiceGlobal(ctx context.Context, cfg config.Config, args []string) error {
	if len(args) == 0 || args[0] == "show" {
		if len(args) > 0 {
			args = args[1:]
		}
		return runVoiceGlobalShow(ctx, cfg, args)
	}
	if args[0] == "set" {
		return runVoiceGlobalSet(ctx, cfg, args[1:])
	}
	printVoiceUsage()
	return fmt.Errorf("unknown voice global subcommand %q", args[0])
}

func runVoiceGlobalShow(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("voice global show", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	vc, err := a.queries.GlobalVoice(rctx)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(vc)
	}
	printGlobalVoice(vc)
	return nil
}

func printGlobalVoice(vc model.GlobalVoiceConfig) {
	fmt.Println(kv("model", defaultIfEmpty(vc.Model, "-")))
	fmt.Println(kv("voice_id", defaultIfEmpty(vc.VoiceID, "-")))
	fmt.Println(kv("temperature", strconv.FormatFloat(vc.Temperature, 'f', 2, 64)))
	fmt.Println(kv("recording", yesNo(vc.RecordingEnabled)))
	fmt.Println("system prompt:")
	fmt.Println(indent(vc.BaseSystemPrompt))
	printQuestions("default questions:", vc.DefaultQuestions)
}

func printQuestions(label string, qs []string) {
	if len(qs) == 0 {
		fmt.Println(label + " (none)")
		return
	}
	fmt.Println(label)
	for i, q := range qs {
		fmt.Printf("  %d. %s\n", i+1, q)
	}
}

func runVoiceGlobalSet(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("voice global set", flag.ContinueOnError)
	modelID := fs.String("model", "", "voice model id")
	voiceID := fs.String("voice", "", "voice id")
	temperature := fs.Float64("temperature", -1, "sampling temperature 0..1 (-1 keeps current)")
	prompt := fs.String("prompt", "", "base system prompt")
	questions := fs.String("questions", "", "default questions separated by |")
	recording := fs.String("recording", "", "record calls: y|n (empty keeps current)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	set := flagsSet(fs)

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()

	vc, err := a.client.GlobalVoiceConfig(rctx)
	if err != nil {
		return err
	}
	if set["model"] {
		vc.Model = strings.TrimSpace(*modelID)
	}
	if set["voice"] {
		vc.VoiceID = strings.TrimSpace(*voiceID)
	}
	if *temperature != -1 {
		vc.Temperature = *temperature
	}
	if set["prompt"] {
		vc.BaseSystemPrompt = strings.TrimSpace(*prompt)
	}
	if set["questions"] {
		vc.DefaultQuestions = splitList(*questions)
	}
	if strings.TrimSpace(*recording) != "" {
		v, ok := parseBool(*recording)
		if !ok {
			return fmt.Errorf("--recording must be y or n")
		}
		vc.RecordingEnabled = v
	}

	var out model.GlobalVoiceConfig
	err = a.cache.Mutate(rctx, func(ctx context.Context) error {
		var err error
		out, err = a.client.UpdateGlobalVoiceConfig(ctx, vc)
		return err
	}, cache.VoiceGlobalKey())
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(out)
	}
	fmt.Println("updated global voice configuration")
	printGlobalVoice(out)
	return nil
}

func runVoiceJob(ctx context.Context, cfg config.Config, args []string) error {
	if len(args) == 0 {
		printVoiceUsage()
		return nil
	}
	switch args[0] {
	case "show":
		return runVoiceJobShow(ctx, cfg, args[1:])
	case "set":
		return runVoiceJobSet(ctx, cfg, args[1:])
	default:
		printVoiceUsage()
		return fmt.Errorf("unknown voice job subcommand %q", args[0])
	}
}

func runVoiceJobShow(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("voice job show", flag.ContinueOnError)
	jobID := fs.String("job", "", "job id")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireJobID(*jobID)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	vc, err := a.queries.JobVoice(rctx, id)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(vc)
	}
	printJobVoice(vc)
	return nil
}

func printJobVoice(vc model.JobVoiceConfig) {
	fmt.Println(kv("job", vc.JobID))
	fmt.Println(kv("use_global", yesNo(vc.UseGlobalConfig)))
	if vc.UseGlobalConfig {
		return
	}
	fmt.Println(kv("model", defaultIfEmpty(vc.Model, "(global)")))
	fmt.Println(kv("voice_id", defaultIfEmpty(vc.VoiceID, "(global)")))
	temp := "(global)"
	if vc.Temperature != nil {
		temp = strconv.FormatFloat(*vc.Temperature, 'f', 2, 64)
	}
	fmt.Println(kv("temperature", temp))
	rec := "(global)"
	if vc.RecordingEnabled != nil {
		rec = yesNo(*vc.RecordingEnabled)
	}
	fmt.Println(kv("recording", rec))
	fmt.Println("system prompt:")
	fmt.Println(indent(defaultIfEmpty(vc.CustomSystemPrompt, "(global)")))
	printQuestions("questions:", vc.CustomQuestions)
}

func runVoiceJobSet(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("voice job set", flag.ContinueOnError)
	jobID := fs.String("job", "", "job id")
	useGlobal := fs.String("use-global", "", "use the global config: y|n (empty keeps current)")
	modelID := fs.String("model", "", "voice model id")
	voiceID := fs.String("voice", "", "voice id")
	temperature := fs.Float64("temperature", -1, "sampling temperature 0..1 (-1 keeps current)")
	prompt := fs.String("prompt", "", "custom system prompt")
	questions := fs.String("questions", "", "custom questions separated by |")
	recording := fs.String("recording", "", "record calls: y|n (empty keeps current)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireJobID(*jobID)
	if err != nil {
		return err
	}
	set := flagsSet(fs)

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()

	vc, err := a.client.JobVoiceConfig(rctx, id)
	if err != nil {
		return err
	}
	if strings.TrimSpace(*useGlobal) != "" {
		v, ok := parseBool(*useGlobal)
		if !ok {
			return fmt.Errorf("--use-global must be y or n")
		}
		vc.UseGlobalConfig = v
	}
	if set["model"] {
		vc.Model = strings.TrimSpace(*modelID)
	}
	if set["voice"] {
		vc.VoiceID = strings.TrimSpace(*voiceID)
	}
	if *temperature != -1 {
		t := *temperature
		vc.Temperature = &t
	}
	if set["prompt"] {
		vc.CustomSystemPrompt = strings.TrimSpace(*prompt)
	}
	if set["questions"] {
		vc.CustomQuestions = splitList(*questions)
	}
	if strings.TrimSpace(*recording) != "" {
		v, ok := parseBool(*recording)
		if !ok {
			return fmt.Errorf("--recording must be y or n")
		}
		vc.RecordingEnabled = &v
	}

	var out model.JobVoiceConfig
	err = a.cache.Mutate(rctx, func(ctx context.Context) error {
		var err error
		out, err = a.client.UpdateJobVoiceConfig(ctx, id, vc)
		return err
	}, cache.VoiceJobKey(id))
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(out)
	}
	fmt.Printf("updated voice configuration for job %s\n", id)
	printJobVoice(out)
	return nil
}

func runVoiceVoices(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("voice voices", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	voices, err := a.client.Voices(rctx)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(voices)
	}
	if len(voices) == 0 {
		fmt.Println("no voices available")
		return nil
	}
	for _, v := range voices {
		fmt.Printf("%-20s  %-20s  %-8s  %-6s  %s\n",
			v.ID, v.Name, defaultIfEmpty(v.Language, "-"), defaultIfEmpty(v.Gender, "-"), model.Truncate(v.Description, 60))
	}
	return nil
}

func runVoiceModels(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("voice models", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	models, err := a.client.VoiceModels(rctx)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(models)
	}
	if len(models) == 0 {
		fmt.Println("no models available")
		return nil
	}
	for _, m := range models {
		fmt.Printf("%-24s  %-24s  %s\n", m.ID, m.Name, model.Truncate(m.Description, 60))
	}
	return nil
}

func printVoiceUsage() {
	fmt.Println("usage: recruit-console voice <subcommand> [flags]")
	fmt.Println()
	fmt.Println("Subcommands:")
	fmt.Println("  global show")
	fmt.Println("  global set [--model ...] [--voice ...] [--temperature 0..1] [--prompt ...]")
	fmt.Println("             [--questions 'q1|q2'] [--recording y|n]")
	fmt.Println("  job show --job <id>")
	fmt.Println("  job set --job <id> [--use-global y|n] [--model ...] [--voice ...] ...")
	fmt.Println("  voices    available voices")
	fmt.Println("  models    available voice models")
}
