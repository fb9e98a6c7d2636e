package config

import (
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

const DefaultBusinessTimezone = "Asia/Kolkata"

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// StrictReceiptOverlap turns a customer receipt that points at a same-day order into an error
// instead of an overlap line on the daily cash report.
//
// Set via env:
// - STRICT_RECEIPT_OVERLAP=true
func StrictReceiptOverlap() bool {
	return envBool("STRICT_RECEIPT_OVERLAP")
}

// StrictPartyMatching refuses to link an orphan when a rule matches more than one party.
//
// Set via env:
// - STRICT_PARTY_MATCHING=true
func StrictPartyMatching() bool {
	return envBool("STRICT_PARTY_MATCHING")
}

// StrictPhoneValidation rejects party mobiles that libphonenumber does not accept for PHONE_REGION.
func StrictPhoneValidation() bool {
	return envBool("STRICT_PHONE_VALIDATION")
}

// PhoneRegion is the default region used to parse party mobiles. Defaults to IN.
func PhoneRegion() string {
	if v := strings.TrimSpace(os.Getenv("PHONE_REGION")); v != "" {
		return strings.ToUpper(v)
	}
	return "IN"
}

// ReportCacheEnabled toggles the Redis cache for historical daily cash reports.
//
// Set via env:
// - ENABLE_REPORT_CACHE=true
// - REPORT_CACHE_TTL_SECONDS=600
func ReportCacheEnabled() bool {
	return envBool("ENABLE_REPORT_CACHE")
}

func ReportCacheTTL() time.Duration {
	return time.Duration(intFromEnv("REPORT_CACHE_TTL_SECONDS", 600)) * time.Second
}

// ReportSlowThreshold is the duration above which report builds are logged. Zero disables it.
func ReportSlowThreshold() time.Duration {
	ms, err := strconv.Atoi(strings.TrimSpace(os.Getenv("REPORT_SLOW_MS")))
	if err != nil || ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// BusinessLocation is the timezone whose midnight separates business days.
// An unknown BUSINESS_TIMEZONE falls back to the default rather than UTC.
func BusinessLocation() *time.Location {
	name := strings.TrimSpace(os.Getenv("BUSINESS_TIMEZONE"))
	if name == "" {
		name = DefaultBusinessTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc, err = time.LoadLocation(DefaultBusinessTimezone)
		if err != nil {
			return time.FixedZone("IST", 5*3600+1800)
		}
	}
	return loc
}
