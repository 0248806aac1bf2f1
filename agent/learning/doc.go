// Package learning turns user feedback and demonstrations into reasoning
// patterns and adaptation rules, applies those rules on request and tracks
// session performance over rolling windows.
package learning
