package handler

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/mcoot/veriloc/internal/api/middleware"
	"github.com/mcoot/veriloc/internal/api/request"
	"github.com/mcoot/veriloc/internal/api/response"
	"github.com/mcoot/veriloc/internal/api/sse"
	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/services/rooms"
)

// RoomHandler handles room endpoints, including status updates from room units
type RoomHandler struct {
	roomService *rooms.Service
	hubManager  *sse.HubManager
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(roomService *rooms.Service, hubManager *sse.HubManager) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
		hubManager:  hubManager,
	}
}

// List handles GET /api/v1/rooms?status=&number=&day=&duration=
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := rooms.Filter{
		Number:   query.Get("number"),
		Duration: query.Get("duration"),
	}
	if raw := query.Get("status"); raw != "" {
		status, err := model.ParseStatusLabel(raw)
		if err != nil {
			WriteError(w, NewInvalidRequestError("status must be Vacant or Occupied"))
			return
		}
		filter.Status = status
	}
	day, err := dayParam(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	filter.Day = day

	list, err := h.roomService.List(r.Context(), filter)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomsFromModel(list))
}

// Occupancy handles GET /api/v1/rooms/occupancy?day=
func (h *RoomHandler) Occupancy(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	stats, err := h.roomService.Occupancy(r.Context(), day)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.OccupancyFromModel(stats))
}

// Analytics handles GET /api/v1/rooms/analytics
func (h *RoomHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	days, err := h.roomService.Analytics(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.DaysFromModel(days))
}

// Get handles GET /api/v1/rooms/{number}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomService.Get(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.MustGetAdmin(r.Context())

	var req request.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	in := rooms.NewRoom{
		Number:           req.RoomNumber,
		AuthorizedAdmins: adminIDs(req.AuthorizedAdmins),
		Bookings:         bookings(req.Bookings),
	}
	if req.Status != "" {
		status, err := model.ParseStatusLabel(req.Status)
		if err != nil {
			WriteError(w, NewInvalidRequestError("status must be Vacant or Occupied"))
			return
		}
		in.Status = status
	}

	room, err := h.roomService.Create(r.Context(), actor, in)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, "/api/v1/rooms/"+url.PathEscape(room.Number), response.RoomFromModel(room))
}

// Update handles PATCH /api/v1/rooms/{number}
func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.MustGetAdmin(r.Context())

	var req request.UpdateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	var in rooms.RoomUpdate
	if req.Status != nil {
		status, err := model.ParseStatusLabel(*req.Status)
		if err != nil {
			WriteError(w, NewInvalidRequestError("status must be Vacant or Occupied"))
			return
		}
		in.Status = &status
	}
	if req.AuthorizedAdmins != nil {
		ids := adminIDs(*req.AuthorizedAdmins)
		in.AuthorizedAdmins = &ids
	}
	if req.Bookings != nil {
		schedule := bookings(*req.Bookings)
		in.Bookings = &schedule
	}

	room, err := h.roomService.Update(r.Context(), actor, mux.Vars(r)["number"], in)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}

// AddBooking handles POST /api/v1/rooms/{number}/bookings
func (h *RoomHandler) AddBooking(w http.ResponseWriter, r *http.Request) {
	actor := middleware.MustGetAdmin(r.Context())

	var req request.Booking
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	room, err := h.roomService.AddBooking(r.Context(), actor, mux.Vars(r)["number"], model.Booking{
		Day:      model.Day(req.Day),
		Duration: req.Duration,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}

// Delete handles DELETE /api/v1/rooms/{number}
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.MustGetAdmin(r.Context())

	if err := h.roomService.Delete(r.Context(), actor, mux.Vars(r)["number"]); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// UpdateStatus handles POST /api/v1/rooms/update.
// Room units call it without a session; the fingerprint ID is the credential.
func (h *RoomHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req request.RoomStatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	room, err := h.roomService.UpdateStatusFromDevice(r.Context(), rooms.StatusUpdate{
		RoomNumber:    req.RoomNumber,
		Status:        req.Status,
		FingerprintID: model.Identity(req.FingerprintID),
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StatusUpdate{
		Room:      response.RoomFromModel(room),
		UpdatedBy: string(room.StatusChangedBy),
	})
}

// Events handles GET /api/v1/rooms/{number}/events
func (h *RoomHandler) Events(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomService.Get(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		WriteError(w, err)
		return
	}

	sse.ServeSSE(w, r, h.hubManager.GetOrCreateHub(room.Number))
}

func dayParam(r *http.Request) (model.Day, error) {
	raw := r.URL.Query().Get("day")
	if raw == "" {
		return "", nil
	}
	return model.ParseDay(raw)
}

func bookings(raw []request.Booking) []model.Booking {
	out := make([]model.Booking, len(raw))
	for i, b := range raw {
		out[i] = model.Booking{Day: model.Day(b.Day), Duration: b.Duration}
	}
	return out
}

func adminIDs(raw []string) []model.AdminID {
	ids := make([]model.AdminID, len(raw))
	for i, id := range raw {
		ids[i] = model.AdminID(id)
	}
	return ids
}
