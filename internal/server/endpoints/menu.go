package endpoints

import (
	"net/http"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/canteen-works/mensa/internal/api"
	"github.com/canteen-works/mensa/internal/menu"
	"github.com/canteen-works/mensa/internal/svcctx"
)

var dateParamRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// MenuResponse is the response for the menu endpoint. When no menu exists
// for the requested date the most recent earlier menu is served instead,
// with Fallback set and Message explaining the substitution.
type MenuResponse struct {
	Menu          menu.DailyMenu `json:"menu"`
	RequestedDate string         `json:"requestedDate"`
	Fallback      bool           `json:"fallback,omitempty"`
	Message       string         `json:"message,omitempty"`
}

// MenuEndpoint handles GET /api/menu. The date query parameter defaults to
// today in the canteen's timezone.
type MenuEndpoint struct{}

var _ api.Endpoint = (*MenuEndpoint)(nil)

func (e *MenuEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/menu", e.handler
}

func (e *MenuEndpoint) RequiresInit() bool { return true }

func (e *MenuEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	clk := svcctx.ClockFrom(r.Context())

	date := r.URL.Query().Get("date")
	if date == "" {
		date = clk.Today()
	} else if !dateParamRe.MatchString(date) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	m, fallback, ok := st.Resolve(date)
	if !ok {
		writeError(w, http.StatusNotFound, "no menu available for "+date)
		return
	}

	resp := MenuResponse{Menu: m, RequestedDate: date, Fallback: fallback}
	if fallback {
		resp.Message = "no menu for " + date + ", showing most recent menu from " + m.Date
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *MenuEndpoint) Command(getServerURL func() string) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Show the menu for a date (default today)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := "/api/menu"
			if date != "" {
				path += "?date=" + date
			}
			var resp MenuResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "menu date (YYYY-MM-DD)")
	return cmd
}

// DatesResponse lists every date with a stored menu, plus range summary
// fields so clients can render a calendar without a second query.
type DatesResponse struct {
	Dates    []string `json:"dates"`
	Count    int      `json:"count"`
	Earliest string   `json:"earliest,omitempty"`
	Latest   string   `json:"latest,omitempty"`
	Today    string   `json:"today"`
	HasToday bool     `json:"hasToday"`
}

// DatesEndpoint handles GET /api/dates.
type DatesEndpoint struct{}

var _ api.Endpoint = (*DatesEndpoint)(nil)

func (e *DatesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/dates", e.handler
}

func (e *DatesEndpoint) RequiresInit() bool { return true }

func (e *DatesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	clk := svcctx.ClockFrom(r.Context())

	dates := st.Dates()
	if dates == nil {
		dates = []string{}
	}
	resp := DatesResponse{
		Dates: dates,
		Count: len(dates),
		Today: clk.Today(),
	}
	if len(dates) > 0 {
		resp.Earliest = dates[0]
		resp.Latest = dates[len(dates)-1]
	}
	for _, d := range dates {
		if d == resp.Today {
			resp.HasToday = true
			break
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *DatesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "dates",
		Short: "List dates that have menus",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp DatesResponse
			if err := client.Get(cmd.Context(), "/api/dates", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// MenusResponse is the range-query response.
type MenusResponse struct {
	Menus []menu.DailyMenu `json:"menus"`
}

// MenusEndpoint handles GET /api/menus with optional from/to bounds.
type MenusEndpoint struct{}

var _ api.Endpoint = (*MenusEndpoint)(nil)

func (e *MenusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/menus", e.handler
}

func (e *MenusEndpoint) RequiresInit() bool { return true }

func (e *MenusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	for _, d := range []string{from, to} {
		if d != "" && !dateParamRe.MatchString(d) {
			writeError(w, http.StatusBadRequest, "from/to must be YYYY-MM-DD")
			return
		}
	}

	st := svcctx.StoreFrom(r.Context())
	menus := st.Range(from, to)
	if menus == nil {
		menus = []menu.DailyMenu{}
	}
	writeJSON(w, http.StatusOK, MenusResponse{Menus: menus})
}

func (e *MenusEndpoint) Command(getServerURL func() string) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "menus",
		Short: "List menus, optionally bounded by date",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := "/api/menus"
			sep := "?"
			if from != "" {
				path += sep + "from=" + from
				sep = "&"
			}
			if to != "" {
				path += sep + "to=" + to
			}
			var resp MenusResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD)")
	return cmd
}
