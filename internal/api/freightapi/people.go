package freightapi

import (
	"net/http"

	"github.com/BearBump/FreightDesk/internal/services/inbox"
	"github.com/BearBump/FreightDesk/internal/services/users"
)

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	in, ok := body[users.CreateInput](a, w, r)
	if !ok {
		return
	}
	u, err := a.svc.Users.Create(r.Context(), in)
	a.reply(w, r, http.StatusCreated, u, err)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := a.params(w, r)
	if !ok {
		return
	}
	page, err := a.svc.Users.List(r.Context(), p)
	a.reply(w, r, http.StatusOK, page, err)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := a.svc.Users.Get(r.Context(), id(r))
	a.reply(w, r, http.StatusOK, u, err)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	in, ok := body[users.UpdateInput](a, w, r)
	if !ok {
		return
	}
	u, err := a.svc.Users.Update(r.Context(), id(r), in)
	a.reply(w, r, http.StatusOK, u, err)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	n, err := a.svc.Users.Delete(r.Context(), id(r))
	a.reply(w, r, http.StatusOK, map[string]int{"rolesRemoved": n}, err)
}

func (a *API) userRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := a.svc.Users.Roles(r.Context(), id(r))
	a.reply(w, r, http.StatusOK, roles, err)
}

func (a *API) createNotification(w http.ResponseWriter, r *http.Request) {
	in, ok := body[inbox.NotificationInput](a, w, r)
	if !ok {
		return
	}
	n, err := a.svc.Inbox.CreateNotification(r.Context(), in)
	a.reply(w, r, http.StatusCreated, n, err)
}

// listNotifications takes ?unread=true; status filters by notification type.
func (a *API) listNotifications(w http.ResponseWriter, r *http.Request) {
	p, ok := a.params(w, r)
	if !ok {
		return
	}
	page, err := a.svc.Inbox.ListNotifications(r.Context(), boolParam(r.URL.Query().Get("unread")), p)
	a.reply(w, r, http.StatusOK, page, err)
}

func (a *API) getNotification(w http.ResponseWriter, r *http.Request) {
	n, err := a.svc.Inbox.GetNotification(r.Context(), id(r))
	a.reply(w, r, http.StatusOK, n, err)
}

type readBody struct {
	Read bool `json:"read"`
}

func (a *API) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	in, ok := body[readBody](a, w, r)
	if !ok {
		return
	}
	a.reply(w, r, http.StatusNoContent, nil, a.svc.Inbox.MarkNotificationRead(r.Context(), id(r), in.Read))
}

func (a *API) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := a.svc.Inbox.MarkAllNotificationsRead(r.Context())
	a.reply(w, r, http.StatusOK, countBody{Count: n}, err)
}

func (a *API) deleteNotification(w http.ResponseWriter, r *http.Request) {
	a.reply(w, r, http.StatusNoContent, nil, a.svc.Inbox.DeleteNotification(r.Context(), id(r)))
}

func (a *API) unreadNotifications(w http.ResponseWriter, r *http.Request) {
	n, err := a.svc.Inbox.UnreadNotifications(r.Context())
	a.reply(w, r, http.StatusOK, countBody{Count: n}, err)
}

func (a *API) createConversation(w http.ResponseWriter, r *http.Request) {
	in, ok := body[inbox.ConversationInput](a, w, r)
	if !ok {
		return
	}
	c, err := a.svc.Inbox.CreateConversation(r.Context(), in)
	a.reply(w, r, http.StatusCreated, c, err)
}

func (a *API) listConversations(w http.ResponseWriter, r *http.Request) {
	p, ok := a.params(w, r)
	if !ok {
		return
	}
	page, err := a.svc.Inbox.ListConversations(r.Context(), p)
	a.reply(w, r, http.StatusOK, page, err)
}

func (a *API) getConversation(w http.ResponseWriter, r *http.Request) {
	c, err := a.svc.Inbox.GetConversation(r.Context(), id(r))
	a.reply(w, r, http.StatusOK, c, err)
}

func (a *API) sendMessage(w http.ResponseWriter, r *http.Request) {
	in, ok := body[inbox.MessageInput](a, w, r)
	if !ok {
		return
	}
	m, err := a.svc.Inbox.SendMessage(r.Context(), id(r), in)
	a.reply(w, r, http.StatusCreated, m, err)
}

func (a *API) listMessages(w http.ResponseWriter, r *http.Request) {
	p, ok := a.params(w, r)
	if !ok {
		return
	}
	page, err := a.svc.Inbox.ListMessages(r.Context(), id(r), p)
	a.reply(w, r, http.StatusOK, page, err)
}

func (a *API) markConversationRead(w http.ResponseWriter, r *http.Request) {
	n, err := a.svc.Inbox.MarkConversationRead(r.Context(), id(r))
	a.reply(w, r, http.StatusOK, countBody{Count: n}, err)
}

func (a *API) unreadMessages(w http.ResponseWriter, r *http.Request) {
	n, err := a.svc.Inbox.UnreadMessages(r.Context())
	a.reply(w, r, http.StatusOK, countBody{Count: n}, err)
}
