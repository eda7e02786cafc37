// Package runner ties the pieces together: it scans the sheet's URL
// column, filters rows the resume cursor already covered, runs the
// batch scheduler, writes successful counts back incrementally, and
// maintains the cursor so interrupted runs resume cleanly.
package runner
