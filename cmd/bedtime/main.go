// Command bedtime generates a complete three-scene story from the command
// line, taking the first branch at every choice, and writes markdown plus
// a PDF storybook to the output directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/opd-ai/bedtime/bookcompiler"
	bedtime "github.com/opd-ai/bedtime/src"
)

func main() {
	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	var (
		category = flag.String("category", bedtime.DefaultCategory, "story category")
		outDir   = flag.String("out", "", "output directory (defaults to OUTPUT_DIR/<timestamp>)")
		poster   = flag.Bool("poster", false, "also generate a poster image")
	)
	flag.Parse()

	idea := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if idea == "" {
		log.Fatal().Msg("please provide a story idea, e.g.: bedtime a dragon who loves cookies")
	}

	cfg, err := bedtime.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}

	ctx := context.Background()
	gen, err := cfg.NewGenerator(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("building generation gateway")
	}
	engine := bedtime.NewEngine(gen)

	var session bedtime.Session
	scene, err := engine.Start(ctx, &session, idea, *category)
	if err != nil {
		log.Fatal().Err(err).Msg("starting story")
	}
	fmt.Println(scene.Text)

	for !scene.Complete {
		choice := scene.Options[0]
		log.Info().Str("choice", choice).Msg("picking the first option")
		scene, err = engine.Choose(ctx, &session, choice)
		if err != nil {
			log.Fatal().Err(err).Msg("continuing story")
		}
		fmt.Println()
		fmt.Println(scene.Text)
	}

	var posterBytes []byte
	if *poster {
		images, err := cfg.NewImageClient()
		if err != nil {
			log.Fatal().Err(err).Msg("building poster backend")
		}
		if images == nil {
			log.Warn().Msg("poster requested but no image backend is configured")
		} else {
			posterBytes, err = images.GeneratePoster(ctx, bedtime.PosterPrompt(session.Scenes))
			if err != nil {
				// The story is already told; a missing poster is not fatal.
				log.Warn().Err(err).Msg("poster generation failed")
				posterBytes = nil
			}
		}
	}

	dir := *outDir
	if dir == "" {
		dir = filepath.Join(cfg.OutputDir, time.Now().Format("20060102-150405"))
	}
	if err := bedtime.SaveStory(&session, posterBytes, dir); err != nil {
		log.Fatal().Err(err).Msg("saving story")
	}

	compiler := bookcompiler.NewStorybookCompiler()
	if err := compiler.Compile(&session, posterBytes); err != nil {
		log.Fatal().Err(err).Msg("compiling storybook")
	}
	pdfPath := filepath.Join(dir, "Storybook.pdf")
	if err := compiler.SaveTo(pdfPath); err != nil {
		log.Fatal().Err(err).Msg("writing storybook pdf")
	}

	log.Info().Str("dir", dir).Msg("story saved")
}
