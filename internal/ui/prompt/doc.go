// Package prompt asks the user to approve destructive steps.
//
// [Confirm] draws on stderr, leaving stdout to reports, and treats anything
// but y/Y as "no". Esc, q and ctrl+c cancel instead of declining. The caller
// is responsible for checking that stdin is a terminal first.
package prompt
