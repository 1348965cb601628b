// Package mrp supports multilevel regression and poststratification
// (MRP): subgroup estimates from a hierarchical regression model are
// reweighted by known population cell frequencies to produce population
// and subgroup level estimates.
//
// This package holds the shared data structures (datasets, population
// cell tables, summary tables, posterior summaries).  The subpackages
// divide the pipeline: simulate generates survey data with demographic
// and geographic structure, mlogit defines the hierarchical Bayesian
// logistic regression model, sampler drives posterior simulation with
// NUTS, and poststrat reduces posterior draws against a population
// table.
package mrp
