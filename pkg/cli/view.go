package cli

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/features"
	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/model"
	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/predict"
)

const (
	// shown for every failed calculation, details go to the log
	genericErrorMessage = "Error"
	modelErrorMessage   = "Model not loaded. Calculations will fail until a valid artifact is available."
)

// control describes the bounds of one numeric input.
type control struct {
	Min  any
	Max  any
	Step any
}

type homePage struct {
	Version   string
	Commit    string
	BuildDate string

	Request        features.Request
	OfflineOptions []features.Offline
	Subscriptions  []features.Subscription
	Devices        []features.Device
	Controls       map[string]control

	Model      *model.Info
	ModelError string

	Result   *predict.Result
	Error    string
	Cue      bool
	SoundURL string
	// ScanDelayMS is the length of the scanning animation before the
	// result is revealed and the cue plays.
	ScanDelayMS int64
}

var controls = map[string]control{
	fieldListeningTime: {Min: features.ListeningTimeMin, Max: features.ListeningTimeMax, Step: 1},
	fieldSongsPlayed:   {Min: features.SongsPlayedMin, Max: features.SongsPlayedMax, Step: 1},
	fieldSkipRate:      {Min: features.SkipRateMin, Max: features.SkipRateMax, Step: features.SkipRateStep},
	fieldAdsPerWeek:    {Min: features.AdsPerWeekMin, Max: features.AdsPerWeekMax, Step: 1},
}

func faviconHandler(w http.ResponseWriter, r *http.Request) {
	file, err := embedFS.ReadFile("assets/img/favicon.svg")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if _, err = w.Write(file); err != nil {
		slog.Error("failed to write favicon", "error", err)
	}
}

func (d *dashboard) newPage(req features.Request) *homePage {
	p := &homePage{
		Version:        version,
		Commit:         commit,
		BuildDate:      date,
		Request:        req,
		OfflineOptions: features.OfflineOptions,
		Subscriptions:  features.Subscriptions,
		Devices:        features.Devices,
		Controls:       controls,
		Model:          d.cfg.info,
		SoundURL:       d.cfg.Config.SoundURL,
		ScanDelayMS:    d.cfg.Config.ScanDelay.Milliseconds(),
	}
	if d.cfg.loadErr != nil {
		p.ModelError = modelErrorMessage
	}
	return p
}

func (d *dashboard) render(w http.ResponseWriter, status int, p *homePage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := d.tmpl.ExecuteTemplate(w, "home", p); err != nil {
		slog.Error("template render failed", "error", err)
	}
}

func (d *dashboard) homeViewHandler(w http.ResponseWriter, _ *http.Request) {
	d.render(w, http.StatusOK, d.newPage(features.DefaultRequest()))
}

func (d *dashboard) calculateHandler(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	p := d.newPage(req)
	if err != nil {
		slog.Warn("invalid calculation request", "error", err)
		d.metrics.ObserveFailure(err)
		p.Error = genericErrorMessage
		d.render(w, http.StatusBadRequest, p)
		return
	}

	cue := predict.NotifierFunc(func(_ context.Context, _ *predict.Result) {
		p.Cue = true
	})

	res, err := d.cfg.loadModel().Predict(r.Context(), features.Assemble(req), cue)
	if err != nil {
		slog.Error("calculation failed", "error", err)
		d.metrics.ObserveFailure(err)
		p.Error = genericErrorMessage
		d.render(w, http.StatusOK, p)
		return
	}

	slog.Info("calculation", "probability", res.Probability, "band", res.Band)
	d.metrics.ObserveResult(res)
	p.Result = res
	d.render(w, http.StatusOK, p)
}
