// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package control provides lightweight runtime instrumentation for poll
// contexts: a snapshot-style metrics registry fed by the dispatch loop and a
// probe registry for dumping live registry state from debug tooling.
package control
