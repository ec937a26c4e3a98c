// Package useragent turns a User-Agent string into a short human readable
// device name such as "Chrome on macOS" or "Safari on iPhone".
//
// The parser is heuristic: it recognises the common desktop and mobile
// browsers and operating systems by keyword, which is enough to let a user
// tell their registered devices apart. It is not a device database.
//
//	ua := useragent.Parse(r.UserAgent())
//	name := ua.DisplayName() // "Firefox on Windows"
package useragent
