package profiling

import (
	"net"
	"net/http"

	// Required for profiling
	_ "net/http/pprof"

	"github.com/shardledger/shardd/infrastructure/logger"
	"github.com/shardledger/shardd/util/panics"
)

// Start starts the profiling server. Extra handlers, such as a metrics
// endpoint, are served next to the profiles.
func Start(port string, log *logger.Logger, extraHandlers map[string]http.Handler) {
	spawn := panics.GoroutineWrapperFunc(log)
	spawn(func() {
		listenAddr := net.JoinHostPort("", port)
		log.Infof("Profile server listening on %s", listenAddr)
		for pattern, handler := range extraHandlers {
			http.Handle(pattern, handler)
		}
		profileRedirect := http.RedirectHandler("/debug/pprof", http.StatusSeeOther)
		http.Handle("/", profileRedirect)
		log.Errorf("%s", http.ListenAndServe(listenAddr, nil))
	})
}
