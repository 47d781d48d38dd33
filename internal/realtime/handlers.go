package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gatherup/backend/internal/services"
	"github.com/gatherup/backend/pkg/logger"
)

// Inbound event names.
const (
	EventJoinGroup         = "joinGroup"
	EventLeaveGroup        = "leaveGroup"
	EventDeleteGroup       = "deleteGroup"
	EventGetMembers        = "getMembers"
	EventSetCalendarDate   = "setCalendarDate"
	EventClearCalendarDate = "clearCalendarDate"
	EventGetCalendarDates  = "getCalendarDates"
	EventTripCreated       = "tripCreated"
)

// Outbound event names.
const (
	EventMemberJoined          = "memberJoined"
	EventMemberLeft            = "memberLeft"
	EventGroupDeleted          = "groupDeleted"
	EventMembersList           = "membersList"
	EventCalendarUpdated       = "calendarUpdated"
	EventCalendarUpdateSuccess = "calendarUpdateSuccess"
	EventCalendarDateCleared   = "calendarDateCleared"
	EventCalendarClearSuccess  = "calendarClearSuccess"
	EventCalendarDatesList     = "calendarDatesList"
	EventRedirectToTrip        = "redirectToTrip"
	EventUserDisconnected      = "userDisconnected"
	EventError                 = "error"
)

// Coordinator dispatches inbound socket events to the services and fans the
// results out to group rooms. Every database mutation commits before its
// event is broadcast; a peer that acts on an event always finds the data
// already in the store.
type Coordinator struct {
	Hub      *Hub
	Registry *Registry

	Groups    *services.GroupService
	Departure *services.DepartureService
	Calendar  *services.CalendarService
}

func NewCoordinator(hub *Hub, registry *Registry, groups *services.GroupService, departure *services.DepartureService, calendar *services.CalendarService) *Coordinator {
	return &Coordinator{
		Hub:       hub,
		Registry:  registry,
		Groups:    groups,
		Departure: departure,
		Calendar:  calendar,
	}
}

type dateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type groupUserPayload struct {
	GroupID uint `json:"groupId"`
	UserID  uint `json:"userId"`
}

type calendarPayload struct {
	GroupID   uint      `json:"groupId"`
	UserID    uint      `json:"userId"`
	DateRange dateRange `json:"dateRange"`
}

type tripCreatedPayload struct {
	GroupID uint `json:"groupId"`
	TripID  uint `json:"tripId"`
}

// HandleMessage parses one inbound frame and dispatches it. Failures are
// reported to the requesting session only; the room never sees another
// member's errors.
func (c *Coordinator) HandleMessage(session *Session, raw []byte) {
	var envelope struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.sendError(session, "malformed event payload")
		return
	}

	var err error
	switch envelope.Event {
	case EventJoinGroup:
		err = c.handleJoinGroup(session, envelope.Data)
	case EventLeaveGroup:
		err = c.handleLeaveGroup(session, envelope.Data)
	case EventDeleteGroup:
		err = c.handleDeleteGroup(session, envelope.Data)
	case EventGetMembers:
		err = c.handleGetMembers(session, envelope.Data)
	case EventSetCalendarDate:
		err = c.handleSetCalendarDate(session, envelope.Data)
	case EventClearCalendarDate:
		err = c.handleClearCalendarDate(session, envelope.Data)
	case EventGetCalendarDates:
		err = c.handleGetCalendarDates(session, envelope.Data)
	case EventTripCreated:
		err = c.handleTripCreated(session, envelope.Data)
	default:
		err = fmt.Errorf("unknown event %q", envelope.Event)
	}

	if err != nil {
		logger.Warn("socket_event_failed", map[string]interface{}{
			"event":   envelope.Event,
			"session": session.ID,
			"error":   err.Error(),
		})
		c.sendError(session, err.Error())
	}
}

// HandleDisconnect detaches the session from its rooms and announces the
// dropped connection. Membership rows are untouched: a lost socket is not a
// departure.
func (c *Coordinator) HandleDisconnect(session *Session) {
	groupIDs := c.Hub.Detach(session)
	for _, groupID := range groupIDs {
		c.Registry.Untrack(groupID, session.UserID)
		c.Hub.Broadcast(groupID, Event{
			Event: EventUserDisconnected,
			Data: map[string]interface{}{
				"groupId": groupID,
				"userId":  session.UserID,
			},
		})
	}
	session.Close()
}

func (c *Coordinator) handleJoinGroup(session *Session, data json.RawMessage) error {
	var payload groupUserPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return errors.New("malformed joinGroup payload")
	}

	joined, err := c.Groups.EnsureMembership(payload.GroupID, payload.UserID)
	if err != nil {
		return err
	}

	c.Hub.Join(payload.GroupID, session)
	c.Registry.Track(payload.GroupID, payload.UserID)

	if joined {
		members, err := c.Groups.GroupMembers(payload.GroupID)
		if err != nil {
			return err
		}
		var newMember *services.MemberInfo
		for i := range members {
			if members[i].UserID == payload.UserID {
				newMember = &members[i]
				break
			}
		}
		c.Hub.Broadcast(payload.GroupID, Event{
			Event: EventMemberJoined,
			Data: map[string]interface{}{
				"groupId":   payload.GroupID,
				"newMember": newMember,
			},
		})
	}
	return nil
}

func (c *Coordinator) handleLeaveGroup(session *Session, data json.RawMessage) error {
	var payload groupUserPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return errors.New("malformed leaveGroup payload")
	}

	groupDeleted, err := c.Departure.LeaveGroup(payload.GroupID, payload.UserID)
	if err != nil {
		return err
	}

	c.Registry.Untrack(payload.GroupID, payload.UserID)

	if groupDeleted {
		c.Hub.Broadcast(payload.GroupID, Event{
			Event: EventGroupDeleted,
			Data:  map[string]interface{}{"groupId": payload.GroupID},
		})
		c.Hub.CloseRoom(payload.GroupID)
		c.Registry.Drop(payload.GroupID)
		return nil
	}

	c.Hub.Leave(payload.GroupID, session)
	c.Hub.Broadcast(payload.GroupID, Event{
		Event: EventMemberLeft,
		Data: map[string]interface{}{
			"groupId": payload.GroupID,
			"userId":  payload.UserID,
		},
	})
	// The companion's availability left with them.
	c.Hub.Broadcast(payload.GroupID, Event{
		Event: EventCalendarDateCleared,
		Data: map[string]interface{}{
			"groupId": payload.GroupID,
			"userId":  payload.UserID,
		},
	})
	return nil
}

func (c *Coordinator) handleDeleteGroup(session *Session, data json.RawMessage) error {
	var payload groupUserPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return errors.New("malformed deleteGroup payload")
	}

	if err := c.Departure.DeleteGroup(payload.GroupID, payload.UserID); err != nil {
		return err
	}

	c.Hub.Broadcast(payload.GroupID, Event{
		Event: EventGroupDeleted,
		Data:  map[string]interface{}{"groupId": payload.GroupID},
	})
	c.Hub.CloseRoom(payload.GroupID)
	c.Registry.Drop(payload.GroupID)
	return nil
}

func (c *Coordinator) handleGetMembers(session *Session, data json.RawMessage) error {
	var payload struct {
		GroupID uint `json:"groupId"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return errors.New("malformed getMembers payload")
	}

	members, err := c.Groups.GroupMembers(payload.GroupID)
	if err != nil {
		return err
	}

	session.Send(Event{
		Event: EventMembersList,
		Data: map[string]interface{}{
			"groupId": payload.GroupID,
			"members": members,
		},
	})
	return nil
}

func (c *Coordinator) handleSetCalendarDate(session *Session, data json.RawMessage) error {
	var payload calendarPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return errors.New("malformed setCalendarDate payload")
	}

	entry, err := c.Calendar.SetDate(payload.GroupID, payload.UserID, payload.DateRange.Start, payload.DateRange.End)
	if err != nil {
		return err
	}

	calendarData := map[string]interface{}{
		"userId":   entry.UserID,
		"nickname": entry.Nickname,
		"dateRange": dateRange{
			Start: entry.StartDate,
			End:   entry.EndDate,
		},
	}

	c.Hub.Broadcast(payload.GroupID, Event{
		Event: EventCalendarUpdated,
		Data: map[string]interface{}{
			"groupId":      payload.GroupID,
			"calendarData": calendarData,
		},
	})
	session.Send(Event{
		Event: EventCalendarUpdateSuccess,
		Data: map[string]interface{}{
			"groupId":      payload.GroupID,
			"calendarData": calendarData,
		},
	})
	return nil
}

func (c *Coordinator) handleClearCalendarDate(session *Session, data json.RawMessage) error {
	var payload groupUserPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return errors.New("malformed clearCalendarDate payload")
	}

	removed, err := c.Calendar.ClearDate(payload.GroupID, payload.UserID)
	if err != nil {
		return err
	}
	// Nothing was stored, nothing to announce.
	if !removed {
		return nil
	}

	c.Hub.Broadcast(payload.GroupID, Event{
		Event: EventCalendarDateCleared,
		Data: map[string]interface{}{
			"groupId": payload.GroupID,
			"userId":  payload.UserID,
		},
	})
	session.Send(Event{
		Event: EventCalendarClearSuccess,
		Data: map[string]interface{}{
			"groupId": payload.GroupID,
			"userId":  payload.UserID,
		},
	})
	return nil
}

func (c *Coordinator) handleGetCalendarDates(session *Session, data json.RawMessage) error {
	var payload struct {
		GroupID uint `json:"groupId"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return errors.New("malformed getCalendarDates payload")
	}

	dates, err := c.Calendar.Dates(payload.GroupID)
	if err != nil {
		return err
	}

	formatted := make([]map[string]interface{}, 0, len(dates))
	for _, d := range dates {
		formatted = append(formatted, map[string]interface{}{
			"userId":   d.UserID,
			"nickname": d.Nickname,
			"dateRange": dateRange{
				Start: d.StartDate,
				End:   d.EndDate,
			},
		})
	}

	session.Send(Event{
		Event: EventCalendarDatesList,
		Data: map[string]interface{}{
			"groupId":      payload.GroupID,
			"calendarData": formatted,
		},
	})
	return nil
}

// handleTripCreated relays the confirmation to the room so every member's
// client navigates to the new trip. The trip itself was created over HTTP.
func (c *Coordinator) handleTripCreated(session *Session, data json.RawMessage) error {
	var payload tripCreatedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return errors.New("malformed tripCreated payload")
	}

	c.Hub.Broadcast(payload.GroupID, Event{
		Event: EventRedirectToTrip,
		Data: map[string]interface{}{
			"groupId": payload.GroupID,
			"tripId":  payload.TripID,
		},
	})
	return nil
}

func (c *Coordinator) sendError(session *Session, message string) {
	session.Send(Event{
		Event: EventError,
		Data:  map[string]interface{}{"message": message},
	})
}
