// Command stairkit builds precast stair units from parameter files: the IFC
// exchange file, a STEP B-Rep model and the bar bending schedule.
package main

func main() {
	Execute()
}
