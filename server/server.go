package server

import (
	"log/slog"
	"net/http"

	"chat-hub/auth"
	"chat-hub/realtime"
	"chat-hub/services"

	"github.com/gorilla/mux"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Users          services.IUserService
	Chats          services.IChatService
	Admin          services.IAdminService
	Tokens         auth.TokenManager
	SocketAuth     auth.SocketAuthenticator
	Dispatcher     *realtime.Dispatcher
	FilesDir       string
	SendBufferSize int
	SessionMaxAge  int
	CookieSecure   bool
	Log            *slog.Logger
}

type handler struct {
	deps Deps
	log  *slog.Logger
}

// NewRouter builds the full route table: REST API, websocket endpoint and
// the static file mount.
func NewRouter(deps Deps) *mux.Router {
	h := &handler{deps: deps, log: deps.Log}
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	authenticated := auth.Middleware(deps.Tokens)

	// Public user routes must be registered before the protected subrouter
	// so they are matched first.
	api.HandleFunc("/user/new", h.register).Methods(http.MethodPost)
	api.HandleFunc("/user/login", h.login).Methods(http.MethodPost)

	user := api.PathPrefix("/user").Subrouter()
	user.Use(authenticated)
	user.HandleFunc("/logout", h.logout).Methods(http.MethodGet)
	user.HandleFunc("/me", h.profile).Methods(http.MethodGet)
	user.HandleFunc("/search", h.search).Methods(http.MethodGet)
	user.HandleFunc("/sendrequest", h.sendRequest).Methods(http.MethodPut)
	user.HandleFunc("/acceptrequest", h.acceptRequest).Methods(http.MethodPut)
	user.HandleFunc("/notifications", h.notifications).Methods(http.MethodGet)
	user.HandleFunc("/friends", h.friends).Methods(http.MethodGet)

	chat := api.PathPrefix("/chat").Subrouter()
	chat.Use(authenticated)
	chat.HandleFunc("/new", h.newGroup).Methods(http.MethodPost)
	chat.HandleFunc("/mychats", h.myChats).Methods(http.MethodGet)
	chat.HandleFunc("/mygroups", h.myGroups).Methods(http.MethodGet)
	chat.HandleFunc("/addmembers", h.addMembers).Methods(http.MethodPatch)
	chat.HandleFunc("/removemember", h.removeMember).Methods(http.MethodPatch)
	chat.HandleFunc("/leavegroup/{id}", h.leaveGroup).Methods(http.MethodDelete)
	chat.HandleFunc("/message", h.sendAttachments).Methods(http.MethodPost)
	chat.HandleFunc("/message/{id}", h.messages).Methods(http.MethodGet)
	chat.HandleFunc("/{id}", h.chatDetails).Methods(http.MethodGet)
	chat.HandleFunc("/{id}", h.renameChat).Methods(http.MethodPut)
	chat.HandleFunc("/{id}", h.deleteChat).Methods(http.MethodDelete)

	api.HandleFunc("/admin/login", h.adminLogin).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminMiddleware(deps.Tokens))
	admin.HandleFunc("", h.adminVerify).Methods(http.MethodGet)
	admin.HandleFunc("/logout", h.adminLogout).Methods(http.MethodGet)
	admin.HandleFunc("/users", h.adminUsers).Methods(http.MethodGet)
	admin.HandleFunc("/chats", h.adminChats).Methods(http.MethodGet)
	admin.HandleFunc("/messages", h.adminMessages).Methods(http.MethodGet)
	admin.HandleFunc("/stats", h.adminStats).Methods(http.MethodGet)

	r.Handle("/ws", &wsHandler{
		authenticator:  deps.SocketAuth,
		dispatcher:     deps.Dispatcher,
		sendBufferSize: deps.SendBufferSize,
		log:            deps.Log,
	})

	r.PathPrefix("/files/").Handler(
		http.StripPrefix("/files/", http.FileServer(http.Dir(deps.FilesDir))))

	return r
}

// setCookie writes a session cookie; maxAge < 0 clears it.
func (h *handler) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.deps.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
