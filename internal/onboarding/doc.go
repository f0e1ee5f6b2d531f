// Package onboarding tracks a device's progress through the signup wizard.
//
// A Session holds the draft answers and the current Step of one device. Every
// change is written to a DraftStore and, once the device has a signed-in
// user, pushed to the remote profile one field group at a time by a Syncer.
// Finalize commits the whole draft as a completed profile and clears the
// local copy.
package onboarding
