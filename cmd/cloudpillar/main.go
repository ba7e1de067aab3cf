// CloudPillar - AWS account scan and recommendation service
package main

func main() {
	Execute()
}
