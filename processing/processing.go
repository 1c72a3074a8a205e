// Package processing takes care of the logistics around reading items from a
// Source and writing them to one or more Targets. Not the processing itself.
package processing

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// ProcessFunc transforms an item, returning false drops it
type ProcessFunc func(Item) (Item, bool)

// readItemsFromSource reads the items from the given source
func readItemsFromSource(source Source, items chan<- Item) {
	source.ReadItems(items)
}

// processItems applies f to every item and passes on the ones that are kept
func processItems(itemsIn <-chan Item, itemsOut chan<- Item, f ProcessFunc, log logrus.FieldLogger) {
	var preCount, postCount, rowCount uint64
	for {
		item, hasMore := <-itemsIn
		if !hasMore {
			break
		}
		preCount++
		processed, keep := f(item)
		if !keep {
			log.WithField("item", item.Name).Debug("dropped")
			continue
		}
		postCount++
		rowCount += uint64(processed.Data.NRow())
		itemsOut <- processed
	}
	close(itemsOut)

	log.WithFields(logrus.Fields{
		"total": preCount,
		"kept":  postCount,
		"rows":  rowCount,
	}).Info("processed items")
}

// writeItemsToTargets hands every item to every target, each target
// writing in its own goroutine
func writeItemsToTargets(items <-chan Item, targets []Target) {
	targetChannels := make([]chan<- Item, 0, len(targets))
	wg := sync.WaitGroup{}

	// create a channel and start a goroutine per target
	for _, target := range targets {
		targetChannel := make(chan Item)
		targetChannels = append(targetChannels, targetChannel)
		wg.Add(1)
		go func(target Target) {
			defer wg.Done()
			target.WriteItems(targetChannel)
		}(target)
	}

	for {
		item, ok := <-items
		if !ok {
			break
		}
		for _, channel := range targetChannels {
			channel <- item
		}
	}

	// close the channels, the targets will do their last writing
	for _, targetChannel := range targetChannels {
		close(targetChannel)
	}

	wg.Wait()
}

// ProcessItems reads all items from source, applies f and writes the result to all targets.
func ProcessItems(source Source, targets []Target, f ProcessFunc, log logrus.FieldLogger) {
	if f == nil {
		f = Keep
	}
	log = orStandard(log)
	itemsBefore := make(chan Item)
	itemsAfter := make(chan Item)

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		writeItemsToTargets(itemsAfter, targets)
	}()
	go processItems(itemsBefore, itemsAfter, f, log)
	go readItemsFromSource(source, itemsBefore)

	wg.Wait()
}

func orStandard(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return logrus.StandardLogger()
	}
	return log
}

// Keep passes every item unchanged
func Keep(item Item) (Item, bool) {
	return item, true
}

// DropEmpty drops items without rows
func DropEmpty(item Item) (Item, bool) {
	return item, item.Data != nil && item.Data.NRow() > 0
}
