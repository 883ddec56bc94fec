// Package tasks runs long-lived library jobs with real-time progress reporting.
//
// # Operations
//
// [Engine] exposes three jobs:
//
//  1. [Engine.BulkExport] : export many collections at once
//     - Resolves each collection and its ordered tracks from the library
//     - Writes files through a bounded worker pool, paced by a rate limiter
//     - Summarizes successes and failures in export_manifest.json
//
//  2. [Engine.ImportURLs] : import Beatport track links pasted as text
//     - Extracts links and track ids
//     - Looks tracks up in batches (3 by default) with a pause between batches
//     - Adds new tracks to the library; tracks already present are skipped
//
//  3. [Engine.WatchImports] : drop-folder import
//     - Watches a directory with fsnotify
//     - Every new or rewritten file is fed to ImportURLs once it settles
//     - Processed files are renamed with a .done suffix
//
// # Progress Reporting
//
// All operations accept an optional channel of [ProgressUpdate]. Sends never block:
// a full or nil channel drops the update.
package tasks
