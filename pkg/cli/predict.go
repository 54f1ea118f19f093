package cli

import (
	"context"
	"fmt"

	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/features"
	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/predict"
	urfave "github.com/urfave/cli/v3"
)

const (
	listeningTimeFlagName = "listening-time"
	songsPlayedFlagName   = "songs-played"
	skipRateFlagName      = "skip-rate"
	adsPerWeekFlagName    = "ads-per-week"
	offlineFlagName       = "offline"
	subscriptionFlagName  = "subscription"
	deviceFlagName        = "device"
	noBellFlagName        = "no-bell"
)

func newPredictCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "predict",
		Aliases: []string{"p"},
		Usage:   "Calculate the churn risk of a single user",
		Flags: []urfave.Flag{
			&urfave.IntFlag{
				Name:  listeningTimeFlagName,
				Usage: fmt.Sprintf("Daily listening time in minutes [%d-%d]", features.ListeningTimeMin, features.ListeningTimeMax),
				Value: features.ListeningTimeDefault,
			},
			&urfave.IntFlag{
				Name:  songsPlayedFlagName,
				Usage: fmt.Sprintf("Songs played per day [%d-%d]", features.SongsPlayedMin, features.SongsPlayedMax),
				Value: features.SongsPlayedDefault,
			},
			&urfave.FloatFlag{
				Name:  skipRateFlagName,
				Usage: fmt.Sprintf("Fraction of songs skipped [%.1f-%.1f]", features.SkipRateMin, features.SkipRateMax),
				Value: features.SkipRateDefault,
			},
			&urfave.IntFlag{
				Name:  adsPerWeekFlagName,
				Usage: fmt.Sprintf("Ads listened per week [%d-%d]", features.AdsPerWeekMin, features.AdsPerWeekMax),
				Value: features.AdsPerWeekDefault,
			},
			&urfave.BoolFlag{
				Name:  offlineFlagName,
				Usage: "Offline listening enabled",
			},
			&urfave.StringFlag{
				Name:  subscriptionFlagName,
				Usage: "Subscription type [Free, Premium, Student, Family]",
				Value: string(features.SubscriptionFree),
			},
			&urfave.StringFlag{
				Name:  deviceFlagName,
				Usage: "Primary device [Mobile, Desktop, Web]",
				Value: string(features.DeviceMobile),
			},
			&urfave.BoolFlag{
				Name:  noBellFlagName,
				Usage: "Do not ring the terminal bell on success",
			},
		},
		Action: cmdPredict,
	}
}

// predictionOutput is the printed result of the predict command.
type predictionOutput struct {
	Input       features.Request `json:"input" yaml:"input"`
	Probability float64          `json:"probability" yaml:"probability"`
	Percent     string           `json:"percent" yaml:"percent"`
	Band        predict.Band     `json:"band" yaml:"band"`
	Label       string           `json:"label" yaml:"label"`
	Color       string           `json:"color" yaml:"color"`
}

func requestFromFlags(cmd *urfave.Command) (features.Request, error) {
	sub, err := features.ParseSubscription(cmd.String(subscriptionFlagName))
	if err != nil {
		return features.Request{}, err
	}
	dev, err := features.ParseDevice(cmd.String(deviceFlagName))
	if err != nil {
		return features.Request{}, err
	}

	r := features.Request{
		ListeningTime:    cmd.Int(listeningTimeFlagName),
		SongsPlayed:      cmd.Int(songsPlayedFlagName),
		SkipRate:         cmd.Float(skipRateFlagName),
		AdsPerWeek:       cmd.Int(adsPerWeekFlagName),
		OfflineListening: cmd.Bool(offlineFlagName),
		Subscription:     sub,
		Device:           dev,
	}
	if err := r.Validate(); err != nil {
		return features.Request{}, err
	}
	return r, nil
}

func cmdPredict(ctx context.Context, cmd *urfave.Command) error {
	applyFlags(cmd)
	cfg := getConfig(cmd)

	req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}

	var n predict.Notifier
	if !cmd.Bool(noBellFlagName) {
		n = &predict.BellNotifier{W: cmd.Root().ErrWriter}
	}

	res, err := cfg.loadModel().Predict(ctx, features.Assemble(req), n)
	if err != nil {
		return err
	}

	return encode(cmd.Root().Writer, cfg.OutputFormat, &predictionOutput{
		Input:       req,
		Probability: res.Probability,
		Percent:     res.Percent(),
		Band:        res.Band,
		Label:       res.Band.Label(),
		Color:       res.Band.Color(),
	})
}
