// Package publish drives the release pipeline:
//
//	Validate → Build → Test → TagAndPush → RegistryPublish → RemoteRelease
//
// Every stage after Validate can be skipped. A stage failure aborts the
// stages after it. A failed registry publish removes the tag created by the
// same run, locally and best effort remotely, and leaves every changeset
// pending. A failed remote release is only a warning.
package publish
