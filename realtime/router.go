package realtime

import "log/slog"

// Router fans events out to connected recipients. Delivery is best effort:
// a failed or missing handle is skipped and never aborts the rest of the
// fanout.
type Router struct {
	registry *Registry
	log      *slog.Logger
}

func NewRouter(registry *Registry, log *slog.Logger) *Router {
	return &Router{registry: registry, log: log}
}

// Broadcast delivers the event to every currently connected target.
func (r *Router) Broadcast(targets []string, event string, payload any) {
	for _, sink := range r.registry.Resolve(targets) {
		r.send(sink, event, payload)
	}
}

// BroadcastExcept delivers to every connected target whose handle is not
// the excluded one. Used by typing notifications, which must not echo back
// to the sender.
func (r *Router) BroadcastExcept(targets []string, except EventSink, event string, payload any) {
	for _, sink := range r.registry.Resolve(targets) {
		if sink == except {
			continue
		}
		r.send(sink, event, payload)
	}
}

// BroadcastAll delivers the event to every live connection.
func (r *Router) BroadcastAll(event string, payload any) {
	for _, sink := range r.registry.All() {
		r.send(sink, event, payload)
	}
}

func (r *Router) send(sink EventSink, event string, payload any) {
	if err := sink.Send(event, payload); err != nil {
		r.log.Debug("delivery skipped", "event", event, "error", err)
	}
}
