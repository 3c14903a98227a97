// Package neat evolves controllers for a side-scrolling platformer with a
// reduced form of NeuroEvolution of Augmenting Topologies (NEAT).
//
// Networks see the screen as a grid of cells valued -1, 0 or 1 and press
// left, right and jump. Every node applies the sign function to the sum of
// its inputs, and every weight is -1 or +1, so evolution searches topology
// only. Nodes sit on layers and edges always point to a higher layer, which
// keeps each network a DAG that evaluates in one pass.
//
// Each generation keeps the top tenth of the networks unchanged and fills
// the rest with copies of them that gained one edge (eight rounds) or had
// one edge split by a new node (one round). There is no crossover and no
// speciation.
//
// The implementation lives in the neat subpackage; neat/nn compiles a
// network into a read-only evaluator and neat/storage archives generations.
//
// Basic usage:
//
//	config, err := neat.LoadConfig("configs/platformer-config")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	pop, err := neat.NewPopulation(config)
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//
//	for i := 0; i < 100; i++ {
//		// playEpisodes calls UpdateFitness(points, seconds) on every network.
//		if _, err := pop.RunGeneration(playEpisodes); err != nil {
//			log.Fatalf("Error running generation: %v", err)
//		}
//	}
package neat
