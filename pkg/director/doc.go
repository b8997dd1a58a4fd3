// Package director implements the score director: the single owner of a working
// solution that mediates every mutation of it.
//
// Every change is bracketed by a before/after pair:
//
//	d.BeforeVariableChanged(lecture, "room")
//	lecture.Room = other
//	d.AfterVariableChanged(lecture, "room")
//	d.TriggerVariableListeners()
//	score, err := d.CalculateScore()
//
// Pairs never nest. Before-calls reach listeners at once; after-calls are queued
// and delivered by TriggerVariableListeners, during which listeners may open their
// own pairs to write shadow variables. Reading the score while a pair is open or
// while after-calls are queued is a usage error.
//
// Supplies demanded from SupplyManager that observe a source variable are
// registered as listeners when created and dropped when destroyed.
package director
