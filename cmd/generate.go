package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pakmandi/bazaar/internal/capture"
	"github.com/pakmandi/bazaar/internal/credentials"
	"github.com/pakmandi/bazaar/internal/models"
	"github.com/pakmandi/bazaar/internal/storage"
	"github.com/pakmandi/bazaar/internal/veo"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	var (
		draft          models.ListingDraft
		gender         string
		output         string
		model          string
		scriptProvider string
		scriptModel    string
		resolution     string
		aspectRatio    string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a promotional video for a listing with Veo",
		Long: `Builds a prompt from the listing details, optionally rewrites it with a
text model, and runs a Veo generation job. The API key is read from
GEMINI_API_KEY or asked for interactively.`,
		Example: `  bazaar generate --breed "Sahiwal Bull" --age 3 --gender Male --weight 450 --location "Punjab, PK"

  # Let Ollama write the scene first
  bazaar generate --breed Cholistani --age 2 --gender Female --weight 300 --location Bahawalpur --script-provider ollama`,
		RunE: func(cmd *cobra.Command, args []string) error {
			draft.Gender = models.Gender(gender)
			if draft.Gender != models.GenderMale && draft.Gender != models.GenderFemale {
				return fmt.Errorf("invalid gender %q (want Male or Female)", gender)
			}

			script, err := scriptWriter(scriptProvider, scriptModel)
			if err != nil {
				return err
			}

			store := credentials.FromEnv("GEMINI_API_KEY")
			media := storage.NewMediaStore()
			cfg := capture.Config{
				Credentials:  credentials.NewPrompt(store, os.Stdin, cmd.ErrOrStderr()),
				Generators:   veo.Factory(veo.Config{Model: veoModel(model)}),
				Handles:      media,
				Script:       script,
				PollInterval: pollInterval(),
				Options: capture.GenerateOptions{
					Count:       1,
					Resolution:  resolution,
					AspectRatio: aspectRatio,
				},
			}

			res, err := runGenerate(cmd, cfg, draft)
			if errors.Is(err, capture.ErrInvalidCredential) {
				fmt.Fprintln(cmd.ErrOrStderr(), capture.UserMessage(err))
				store.Clear()
				res, err = runGenerate(cmd, cfg, draft)
			}
			if errors.Is(err, capture.ErrUserCancelled) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
				return nil
			}
			if err != nil {
				return errors.New(capture.UserMessage(err))
			}
			return saveMedia(media, res, output)
		},
	}

	cmd.Flags().StringVar(&draft.Breed, "breed", "", "Breed of the animal")
	cmd.Flags().Float64Var(&draft.Age, "age", 0, "Age in years")
	cmd.Flags().StringVar(&gender, "gender", string(models.GenderMale), "Male or Female")
	cmd.Flags().Float64Var(&draft.Weight, "weight", 0, "Weight in kg")
	cmd.Flags().StringVar(&draft.Location, "location", "", "Farm location")
	cmd.Flags().StringVarP(&output, "output", "o", "listing.mp4", "File to write the video to")
	cmd.Flags().StringVar(&model, "model", "", "Veo model (default VEO_MODEL or "+veo.DefaultModel+")")
	cmd.Flags().StringVar(&scriptProvider, "script-provider", "", "Rewrite the prompt with ollama, openai or gemini first (default SCRIPT_PROVIDER)")
	cmd.Flags().StringVar(&scriptModel, "script-model", "", "Model for the scripting provider")
	cmd.Flags().StringVar(&resolution, "resolution", capture.DefaultOptions.Resolution, "Video resolution")
	cmd.Flags().StringVar(&aspectRatio, "aspect-ratio", capture.DefaultOptions.AspectRatio, "Video aspect ratio")

	return cmd
}

// runGenerate drives one generation attempt and prints status changes until it ends.
// A cancelled key prompt is returned as capture.ErrUserCancelled.
func runGenerate(cmd *cobra.Command, cfg capture.Config, draft models.ListingDraft) (capture.Result, error) {
	session := capture.NewSession(uuid.NewString(), cfg)
	defer session.Close()

	if err := session.Generate(draft); err != nil {
		return capture.Result{}, err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- session.Wait(ctx) }()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	last := ""
	for {
		select {
		case err := <-done:
			if err != nil {
				return capture.Result{}, err
			}
			res, ok := session.TakeResult()
			if !ok {
				return capture.Result{}, capture.ErrUserCancelled
			}
			return res, nil
		case <-ticker.C:
			if status := session.Snapshot().Status; status != "" && status != last {
				fmt.Fprintln(cmd.ErrOrStderr(), status)
				last = status
			}
		}
	}
}
