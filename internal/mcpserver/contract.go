package mcpserver

// DashboardGuide explains the dashboard vocabulary to LLM consumers.
const DashboardGuide = `# Life Dashboard Guide

The dashboard tracks four life quadrants and a timeline of moments.

## Quadrants

| category        | covers                                   |
|-----------------|------------------------------------------|
| relationships   | friends, family, social connection       |
| parkour         | training, movement, fitness              |
| work            | work, startup, coding, projects          |
| travel          | trips, adventure, learning Japanese      |

Each quadrant has a status: thriving, balanced, needs_attention, dormant
or neglected.

## Manual entries

Use ` + "`add_manual_entry`" + ` to record something that happened. Entries are
picked up by the next refresh and folded into the analysis exactly once.

- ` + "`content`" + ` is required, written in plain language.
- ` + "`category`" + ` is required and must be one of the four quadrant categories.
- ` + "`link`" + ` is optional.

## Timeline

Timeline entries carry a date (YYYY-MM-DD), a category, a title, content and
a significance of minor, notable or major. ` + "`list_timeline`" + ` returns them
newest first.

## Goals

Goals are near-term or far-term. Only near-term goals track progress (1-100).
`
