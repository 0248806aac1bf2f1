// Package assessment scores reasoning artifacts against weighted
// constitutional frameworks, derives corrections from detected flaws and
// aggregates quality metrics over the assessment history.
package assessment
