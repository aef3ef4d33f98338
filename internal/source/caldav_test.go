package source

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/emersion/go-ical"

	"github.com/setevik/remindctx/internal/event"
)

func TestFromEmersionEvent(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}

	comp := ical.NewComponent(ical.CompEvent)
	comp.Props.SetText(ical.PropUID, "lunch-1")
	comp.Props.SetText(ical.PropSummary, "Lunch, team")
	comp.Props.SetText(ical.PropLocation, "Cafe")
	comp.Props.SetDateTime(ical.PropDateTimeStart, time.Date(2024, 6, 3, 12, 0, 0, 0, ny))
	comp.Props.SetDateTime(ical.PropDateTimeEnd, time.Date(2024, 6, 3, 13, 0, 0, 0, ny))

	v := fromEmersionEvent(comp, time.UTC)
	if v.uid != "lunch-1" || v.summary != "Lunch, team" || v.location != "Cafe" {
		t.Errorf("text fields = %+v", v)
	}
	if got := v.start.timeSpec(); got.DateTime != "2024-06-03T12:00:00-04:00" {
		t.Errorf("start = %+v", got)
	}
	if got := v.end.timeSpec(); got.DateTime != "2024-06-03T13:00:00-04:00" {
		t.Errorf("end = %+v", got)
	}
}

func TestFromEmersionEventAllDayRecurring(t *testing.T) {
	comp := ical.NewComponent(ical.CompEvent)
	comp.Props.SetText(ical.PropUID, "gym")
	comp.Props.SetText(ical.PropSummary, "Gym")
	comp.Props.SetDate(ical.PropDateTimeStart, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC))
	comp.Props.SetDate(ical.PropDateTimeEnd, time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC))

	rule := ical.NewProp(ical.PropRecurrenceRule)
	rule.Value = "FREQ=DAILY;COUNT=5"
	comp.Props.Set(rule)

	ex := ical.NewProp(ical.PropExceptionDates)
	ex.Params.Set(ical.ParamValue, "DATE")
	ex.Value = "20240604"
	comp.Props.Set(ex)

	v := fromEmersionEvent(comp, time.UTC)
	if !v.start.allDay || v.rrule != "FREQ=DAILY;COUNT=5" || len(v.exdates) != 1 {
		t.Fatalf("decoded = %+v", v)
	}

	raws := expand([]vevent{v}, icsFrom, icsTo, 0)
	var dates []string
	for _, r := range raws {
		dates = append(dates, r.Start.Date)
	}
	want := []string{"2024-06-03", "2024-06-05", "2024-06-06"}
	if len(dates) != len(want) {
		t.Fatalf("dates = %v, want %v", dates, want)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Errorf("dates[%d] = %s, want %s", i, dates[i], want[i])
		}
	}
	if raws[0].End != (event.TimeSpec{Date: "2024-06-04"}) {
		t.Errorf("occurrence end = %+v", raws[0].End)
	}
}

func TestBasicAuthTransport(t *testing.T) {
	var user, pass, agent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ = r.BasicAuth()
		agent = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	client := &http.Client{Transport: &basicAuthTransport{
		username:  "me",
		password:  "app-password",
		transport: http.DefaultTransport,
	}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if user != "me" || pass != "app-password" {
		t.Errorf("basic auth = %q/%q", user, pass)
	}
	if agent != "remindctx/1.0" {
		t.Errorf("User-Agent = %q", agent)
	}
}
