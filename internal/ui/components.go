package ui

import (
	"strings"

	twmerge "github.com/Oudwins/tailwind-merge-go"
)

const (
	buttonBase = "inline-flex items-center justify-center gap-2 rounded-md px-4 py-2 text-sm font-medium transition-colors focus-visible:outline-none focus-visible:ring-2 focus-visible:ring-indigo-500 disabled:pointer-events-none disabled:opacity-50"
	inputBase  = "block w-full rounded-md border border-slate-300 bg-white px-3 py-2 text-sm shadow-sm placeholder:text-slate-400 focus:border-indigo-500 focus:outline-none focus:ring-1 focus:ring-indigo-500"
	alertBase  = "rounded-md border px-4 py-3 text-sm"
	badgeBase  = "inline-flex items-center rounded-full px-2 py-0.5 text-xs font-semibold uppercase tracking-wide"
)

var buttonVariants = map[string]string{
	"primary":   "bg-indigo-600 text-white hover:bg-indigo-500",
	"secondary": "border border-slate-300 bg-white text-slate-900 hover:bg-slate-100",
	"ghost":     "text-slate-700 hover:bg-slate-100",
	"danger":    "bg-red-600 text-white hover:bg-red-500",
}

var alertVariants = map[string]string{
	"error":   "border-red-200 bg-red-50 text-red-800",
	"success": "border-green-200 bg-green-50 text-green-800",
	"info":    "border-slate-200 bg-white text-slate-700",
}

var severityVariants = map[string]string{
	"critical": "bg-red-100 text-red-800",
	"high":     "bg-orange-100 text-orange-800",
	"medium":   "bg-amber-100 text-amber-800",
	"low":      "bg-slate-100 text-slate-700",
}

// ButtonClass composes the button classes for variant; extra classes win on conflict.
func ButtonClass(variant string, extra ...string) string {
	v, ok := buttonVariants[variant]
	if !ok {
		v = buttonVariants["primary"]
	}
	return twmerge.Merge(append([]string{buttonBase, v}, extra...)...)
}

func InputClass(extra ...string) string {
	return twmerge.Merge(append([]string{inputBase}, extra...)...)
}

func AlertClass(variant string, extra ...string) string {
	v, ok := alertVariants[variant]
	if !ok {
		v = alertVariants["info"]
	}
	return twmerge.Merge(append([]string{alertBase, v}, extra...)...)
}

// SeverityClass maps free-form severities from the model onto badge colors.
func SeverityClass(severity string) string {
	v, ok := severityVariants[strings.ToLower(strings.TrimSpace(severity))]
	if !ok {
		v = severityVariants["low"]
	}
	return twmerge.Merge(badgeBase, v)
}
