// Package types defines the Project, Feature, Task, and User entities, the
// Store and Tx interfaces that persistence backends implement, and the error
// kinds shared by every layer of teamboard.
package types
