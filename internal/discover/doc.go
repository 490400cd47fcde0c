// Package discover finds Philips TVs on the local network.
//
// Browser browses the Android TV remote mDNS services, confirms each new
// address answers the JointSpace system endpoint, and feeds a Registry.
// Registry holds the current set and notifies subscribers of Added and
// Removed events, which the UI uses to fill its device list.
package discover
