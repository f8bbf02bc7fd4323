package services

import (
	"sort"
	"strings"
	"time"

	"github.com/6tail/lunar-go/HolidayUtil"
	"github.com/6tail/lunar-go/calendar"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/at"
	"github.com/rickar/cal/v2/au"
	"github.com/rickar/cal/v2/be"
	"github.com/rickar/cal/v2/br"
	"github.com/rickar/cal/v2/ca"
	"github.com/rickar/cal/v2/ch"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/dk"
	"github.com/rickar/cal/v2/es"
	"github.com/rickar/cal/v2/fi"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/ie"
	"github.com/rickar/cal/v2/it"
	"github.com/rickar/cal/v2/jp"
	"github.com/rickar/cal/v2/nl"
	"github.com/rickar/cal/v2/no"
	"github.com/rickar/cal/v2/nz"
	"github.com/rickar/cal/v2/pl"
	"github.com/rickar/cal/v2/pt"
	"github.com/rickar/cal/v2/se"
	"github.com/rickar/cal/v2/us"
)

// WeekdaysOnly is the calendar code that excludes Saturdays and Sundays and nothing else.
const WeekdaysOnly = "NONE"

// HolidayService answers "is this a working day" for a country calendar.
type HolidayService struct {
	calendars map[string]*cal.BusinessCalendar
	names     map[string]string
}

func NewHolidayService() *HolidayService {
	s := &HolidayService{
		calendars: make(map[string]*cal.BusinessCalendar),
		names:     make(map[string]string),
	}
	s.initCalendars()
	return s
}

func (s *HolidayService) initCalendars() {
	s.add("US", "United States", us.Holidays...)
	s.add("GB", "United Kingdom", gb.Holidays...)
	s.add("DE", "Germany", de.Holidays...)
	s.add("FR", "France", fr.Holidays...)
	s.add("JP", "Japan", jp.Holidays...)
	s.add("AU", "Australia", au.HolidaysNSW...)
	s.add("CA", "Canada", ca.Holidays...)
	s.add("NZ", "New Zealand", nz.Holidays...)
	s.add("IT", "Italy", it.Holidays...)
	s.add("ES", "Spain", es.Holidays...)
	s.add("NL", "Netherlands", nl.Holidays...)
	s.add("BE", "Belgium", be.Holidays...)
	s.add("AT", "Austria", at.Holidays...)
	s.add("CH", "Switzerland", ch.Holidays...)
	s.add("SE", "Sweden", se.Holidays...)
	s.add("NO", "Norway", no.Holidays...)
	s.add("DK", "Denmark", dk.Holidays...)
	s.add("FI", "Finland", fi.Holidays...)
	s.add("PL", "Poland", pl.Holidays...)
	s.add("PT", "Portugal", pt.Holidays...)
	s.add("IE", "Ireland", ie.Holidays...)
	s.add("BR", "Brazil", br.Holidays...)
	s.names["CN"] = "China"
}

func (s *HolidayService) add(code, name string, holidays ...*cal.Holiday) {
	c := cal.NewBusinessCalendar()
	c.Name = name
	c.AddHoliday(holidays...)
	s.calendars[code] = c
	s.names[code] = name
}

// IsWorkday reports whether t is a working day in the given calendar. Unknown codes fall back
// to WeekdaysOnly.
func (s *HolidayService) IsWorkday(t time.Time, countryCode string) bool {
	code := strings.ToUpper(countryCode)
	if code == "CN" {
		return s.isWorkdayChina(t)
	}

	c, ok := s.calendars[code]
	if !ok {
		return !cal.IsWeekend(t)
	}
	return c.IsWorkday(t)
}

// isWorkdayChina honours adjusted working weekends from the lunar calendar tables.
func (s *HolidayService) isWorkdayChina(t time.Time) bool {
	solar := calendar.NewSolarFromDate(t)
	holiday := HolidayUtil.GetHolidayByYmd(solar.GetYear(), solar.GetMonth(), solar.GetDay())

	if holiday != nil {
		return holiday.IsWork()
	}

	return !cal.IsWeekend(t)
}

// WorkingDays counts working days in month/year for the calendar.
func (s *HolidayService) WorkingDays(month, year int, countryCode string) int {
	first := time.Date(year, time.Month(month), 1, 12, 0, 0, 0, time.Local)
	days := 0
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		if s.IsWorkday(d, countryCode) {
			days++
		}
	}
	return days
}

// IsSupported reports whether code names a known calendar.
func (s *HolidayService) IsSupported(code string) bool {
	code = strings.ToUpper(code)
	if code == WeekdaysOnly {
		return true
	}
	_, ok := s.names[code]
	return ok
}

type CountryInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// GetSupportedCountries lists calendars sorted by code with WeekdaysOnly last.
func (s *HolidayService) GetSupportedCountries() []CountryInfo {
	countries := make([]CountryInfo, 0, len(s.names)+1)
	for code, name := range s.names {
		countries = append(countries, CountryInfo{Code: code, Name: name})
	}
	sort.Slice(countries, func(i, j int) bool { return countries[i].Code < countries[j].Code })
	return append(countries, CountryInfo{Code: WeekdaysOnly, Name: "Weekdays Only (Mon-Fri)"})
}
