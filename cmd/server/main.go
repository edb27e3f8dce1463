package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub013/internal/config"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub013/internal/utils"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub013/log"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub013/pkg/httplimiter"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub013/ratelimit"
)

const cleanupInterval = 5 * time.Minute

func ContactHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("contact form accepted"))
}

func InquiryHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("inquiry accepted"))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Logger().Fatal("Failed to load configuration", zap.Error(err))
	}

	// The store is chosen once here and injected; nothing below reaches
	// for hidden global state.
	store := ratelimit.NewStore(cfg.Store)
	limiter := ratelimit.NewLimiter(store, time.Now)

	extractor := utils.NewClientIPExtractor()

	contactMux := http.NewServeMux()
	contactMux.HandleFunc("/api/v1/contact", ContactHandler)
	contact := httplimiter.NewHandler(contactMux, &httplimiter.Config{
		Extractor: extractor,
		Limiter:   limiter,
		Preset:    ratelimit.PresetContact,
	})

	inquiryMux := http.NewServeMux()
	inquiryMux.HandleFunc("/api/v1/inquiry", InquiryHandler)
	inquiry := httplimiter.NewHandler(inquiryMux, &httplimiter.Config{
		Extractor: extractor,
		Limiter:   limiter,
		Preset:    ratelimit.PresetInquiry,
	})

	root := http.NewServeMux()
	root.Handle("/api/v1/contact", contact)
	root.Handle("/api/v1/inquiry", inquiry)

	// Only the memory store needs sweeping; Cleanup is a no-op for the
	// network backends.
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			limiter.Cleanup()
		}
	}()

	addr := ":" + cfg.Server.Port
	log.Logger().Info("Run a server", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, root); err != nil {
		log.Logger().Fatal("Failed to serve handler", zap.Error(err))
	}
}
